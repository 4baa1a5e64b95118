package shared

import (
	"context"
	"time"

	"bookline/internal/domain/booking"
	"bookline/internal/domain/inventory"
	"bookline/internal/domain/schedule"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: command-side reads using implicit transactions
	Reads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Inventory() InventoryRepository
	Reads() CommandReads
}

type CommandReads interface {
	ServiceByID(ctx context.Context, id uuid.UUID) (*ServiceSnapshot, error)
	WorkingHoursByService(ctx context.Context, serviceID uuid.UUID) (schedule.WeekSchedule, error)
	ContactByID(ctx context.Context, id uuid.UUID) (*ContactSnapshot, error)
	BookingByID(ctx context.Context, id uuid.UUID) (*BookingSnapshot, error)
	TemplateByType(ctx context.Context, templateType string) (*TemplateSnapshot, error)
	LatestFormStatusByContact(ctx context.Context, contactID uuid.UUID) (string, bool, error)
}

// Minimal snapshots for command read operations
type ServiceSnapshot struct {
	ID          uuid.UUID
	Name        string
	DurationMin int32
	BufferMin   int32
	Capacity    int32
	Location    string
	Active      bool
}

type ContactSnapshot struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone *string
}

type BookingSnapshot struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	ContactID uuid.UUID
	Start     time.Time
	End       time.Time
	Status    string
}

type TemplateSnapshot struct {
	Type    string
	Subject string
	Body    string
}

type TriggerRecord struct {
	ID           uuid.UUID
	FireAt       time.Time
	EventType    string
	EntityID     uuid.UUID
	TemplateType string
	Recipient    string
	Payload      map[string]string
	Status       string
	Attempts     int32
	LastError    *string
}

// Trigger lifecycle states. Claiming is the only pending→processing edge
// and happens through a conditional update, so two workers can never both
// own the same trigger.
const (
	TriggerStatusPending    = "pending"
	TriggerStatusProcessing = "processing"
	TriggerStatusSent       = "sent"
	TriggerStatusSkipped    = "skipped"
	TriggerStatusFailed     = "failed"
)

type InventoryLink struct {
	ItemID   uuid.UUID
	Quantity int32
}

type BookingRepository interface {
	// LockService serializes concurrent bookers of one service.
	LockService(ctx context.Context, serviceID uuid.UUID) error
	CountOverlapping(ctx context.Context, serviceID uuid.UUID, start, end time.Time, buffer time.Duration) (int, error)
	Create(ctx context.Context, b *booking.Booking) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error
}

type InventoryRepository interface {
	LinksByService(ctx context.Context, serviceID uuid.UUID) ([]InventoryLink, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Item, error)
	UpdateStock(ctx context.Context, id uuid.UUID, newStock int32) error
	AppendTransaction(ctx context.Context, adj inventory.Adjustment) (uuid.UUID, error)
}

type TriggerRepository interface {
	Create(ctx context.Context, t TriggerRecord) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]TriggerRecord, error)
	// Claim returns false when another worker already owns the trigger.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkSkipped(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int32, lastError string) error
	Requeue(ctx context.Context, id uuid.UUID, fireAt time.Time, attempts int32, lastError string) error
}

type DeliveryRepository interface {
	// TryInsert returns false when the dedup key already exists.
	TryInsert(ctx context.Context, dedupKey, eventType string, entityID uuid.UUID, templateType, recipient string, sentAt time.Time) (bool, error)
	// Delete releases a record whose send is known to have failed, so a
	// later retry can claim the dedup key again.
	Delete(ctx context.Context, dedupKey string) error
}
