package worker

import (
	"context"
	"log/slog"
	"time"

	"bookline/internal/domain/automation"
	"bookline/internal/domain/booking"
	"bookline/internal/infra"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/usecase/commands"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

// Scheduler polls due triggers and fires them. Multiple instances can run
// against the same database: the conditional claim makes each trigger
// fire at most once regardless of how many workers see it as due.
type Scheduler struct {
	triggers shared.TriggerRepository
	reads    shared.CommandReads
	engine   commands.AutomationCommands
	clock    clock.Clock
	cfg      config.SchedulerConfig

	done    chan struct{}
	stopped chan struct{}
}

func NewScheduler(
	triggers shared.TriggerRepository,
	reads shared.CommandReads,
	engine commands.AutomationCommands,
	clk clock.Clock,
	cfg config.Config,
) *Scheduler {
	return &Scheduler{
		triggers: triggers,
		reads:    reads,
		engine:   engine,
		clock:    clk,
		cfg:      cfg.Scheduler,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.done)
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Tick(context.Background(), s.clock.Now()); err != nil {
				slog.Error("scheduler tick failed", "error", err.Error())
			}
		case <-s.done:
			return
		}
	}
}

// Tick processes one batch of due triggers. Exposed for tests and for
// callers that drive the loop themselves.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	due, err := s.triggers.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, trigger := range due {
		claimed, err := s.triggers.Claim(ctx, trigger.ID)
		if err != nil {
			slog.Error("trigger claim failed", "trigger_id", trigger.ID, "error", err.Error())
			continue
		}
		if !claimed {
			continue
		}
		s.fire(ctx, trigger, now)
	}
	return nil
}

func (s *Scheduler) fire(ctx context.Context, trigger shared.TriggerRecord, now time.Time) {
	ok, err := s.preconditionHolds(ctx, trigger)
	if err != nil {
		s.retryOrFail(ctx, trigger, now, err)
		return
	}
	if !ok {
		if err := s.triggers.MarkSkipped(ctx, trigger.ID); err != nil {
			slog.Error("failed to mark trigger skipped", "trigger_id", trigger.ID, "error", err.Error())
		}
		slog.Info("trigger skipped, precondition no longer holds",
			"trigger_id", trigger.ID,
			"event_type", trigger.EventType,
			"template", trigger.TemplateType)
		return
	}

	if err := s.engine.DispatchScheduled(ctx, trigger); err != nil {
		s.retryOrFail(ctx, trigger, now, err)
		return
	}
	if err := s.triggers.MarkSent(ctx, trigger.ID); err != nil {
		slog.Error("failed to mark trigger sent", "trigger_id", trigger.ID, "error", err.Error())
	}
}

// retryOrFail requeues with a linearly growing delay until the attempt
// budget is spent, then parks the trigger as failed with its last error.
func (s *Scheduler) retryOrFail(ctx context.Context, trigger shared.TriggerRecord, now time.Time, cause error) {
	attempts := trigger.Attempts + 1
	if attempts >= s.cfg.MaxAttempts {
		if err := s.triggers.MarkFailed(ctx, trigger.ID, attempts, cause.Error()); err != nil {
			slog.Error("failed to mark trigger failed", "trigger_id", trigger.ID, "error", err.Error())
		}
		slog.Error("trigger exhausted retries",
			"trigger_id", trigger.ID,
			"event_type", trigger.EventType,
			"attempts", attempts,
			"error", cause.Error())
		return
	}

	fireAt := now.Add(s.cfg.RetryBackoff * time.Duration(attempts))
	if err := s.triggers.Requeue(ctx, trigger.ID, fireAt, attempts, cause.Error()); err != nil {
		slog.Error("failed to requeue trigger", "trigger_id", trigger.ID, "error", err.Error())
		return
	}
	slog.Warn("trigger requeued",
		"trigger_id", trigger.ID,
		"attempts", attempts,
		"next_fire_at", fireAt,
		"error", cause.Error())
}

func (s *Scheduler) preconditionHolds(ctx context.Context, trigger shared.TriggerRecord) (bool, error) {
	eventType, okType := automation.ParseEventType(trigger.EventType)
	if !okType {
		return false, nil
	}

	switch automation.PreconditionFor(eventType, automation.TemplateType(trigger.TemplateType)) {
	case automation.PrecondBookingActive:
		snap, err := s.reads.BookingByID(ctx, trigger.EntityID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return false, nil
			}
			return false, err
		}
		status, ok := booking.ParseStatus(snap.Status)
		return ok && status.IsActive(), nil

	case automation.PrecondFormIncomplete:
		contactID, err := uuid.Parse(trigger.Payload[automation.PayloadContactID])
		if err != nil {
			// No contact reference means we cannot prove completion;
			// send rather than silently drop.
			return true, nil
		}
		status, found, err := s.reads.LatestFormStatusByContact(ctx, contactID)
		if err != nil {
			return false, err
		}
		// A completed form cancels the reminder; absent or in-progress
		// forms keep it.
		return !(found && status == "completed"), nil
	}
	return true, nil
}
