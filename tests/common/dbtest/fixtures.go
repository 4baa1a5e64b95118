//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestService(t *testing.T, db DBLike, name string, durationMin, bufferMin, capacity int32) uuid.UUID {
	t.Helper()

	serviceID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO services (id, name, duration_min, buffer_min, capacity, location, active) VALUES ($1, $2, $3, $4, $5, 'Studio A', true)",
		serviceID, name, durationMin, bufferMin, capacity)
	require.NoError(t, err)

	// Open every day 09:00-17:00 so tests can book on any date.
	for weekday := 0; weekday < 7; weekday++ {
		_, err = db.Exec(ctx,
			"INSERT INTO working_hours (service_id, weekday, open_min, close_min) VALUES ($1, $2, 540, 1020)",
			serviceID, weekday)
		require.NoError(t, err)
	}

	return serviceID
}

func CreateTestContact(t *testing.T, db DBLike, name, email string) uuid.UUID {
	t.Helper()

	contactID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO contacts (id, name, email) VALUES ($1, $2, $3)",
		contactID, name, email)
	require.NoError(t, err)

	return contactID
}

func CreateTestItem(t *testing.T, db DBLike, name string, stock, threshold int32, autoDeduct bool) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO inventory_items (id, name, current_stock, threshold, auto_deduct, supplier_email, active) VALUES ($1, $2, $3, $4, $5, 'supplier@example.com', true)",
		itemID, name, stock, threshold, autoDeduct)
	require.NoError(t, err)

	return itemID
}

func LinkServiceItem(t *testing.T, db DBLike, serviceID, itemID uuid.UUID, quantity int32) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO service_inventory_links (service_id, item_id, quantity) VALUES ($1, $2, $3)",
		serviceID, itemID, quantity)
	require.NoError(t, err)
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	// The migration seeds templates; reseed after TRUNCATE.
	_, err := pool.Exec(ctx, `
		INSERT INTO message_templates (type, subject, body) VALUES
		    ('welcome', 'Welcome to {{business_name}}!', 'Hi {{customer_name}}, thanks for reaching out.'),
		    ('booking_confirmation', 'Your booking is confirmed', 'Hi {{customer_name}}, {{service_name}} on {{booking_date}} at {{booking_time}} is confirmed.'),
		    ('booking_reminder', 'Reminder: {{service_name}} tomorrow', 'Hi {{customer_name}}, see you at {{booking_time}}.'),
		    ('form_reminder', 'Please complete your intake form', 'Hi {{customer_name}}, your intake form is still incomplete.'),
		    ('inventory_alert', 'Low stock: {{item_name}}', '{{item_name}} is at {{current_stock}} units (threshold {{threshold}}).')
		ON CONFLICT (type) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
