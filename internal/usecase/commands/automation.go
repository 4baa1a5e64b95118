package commands

import (
	"context"
	"log/slog"
	"time"

	"bookline/internal/domain/automation"
	"bookline/internal/infra"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/config"
	"bookline/internal/pkg/errs"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

// AutomationCommands is the rule engine: it maps lifecycle events to
// immediate sends and scheduled triggers, with at-most-once delivery per
// (event type, entity, template).
type AutomationCommands interface {
	// EmitEvent runs every action of the event's rules: immediate sends
	// plus scheduled triggers. Send failures are logged, not returned;
	// only persistence failures surface.
	EmitEvent(ctx context.Context, event automation.Event) error
	// Dispatch runs only the immediate send actions.
	Dispatch(ctx context.Context, event automation.Event) error
	// DispatchScheduled delivers the single send a claimed trigger stands
	// for, reusing the recipient resolved at schedule time.
	DispatchScheduled(ctx context.Context, trigger shared.TriggerRecord) error
}

type automationCommandsImpl struct {
	triggers   shared.TriggerRepository
	deliveries shared.DeliveryRepository
	reads      shared.CommandReads
	dispatcher Dispatcher
	clock      clock.Clock
	mail       config.MailConfig
}

func NewAutomationCommands(
	triggers shared.TriggerRepository,
	deliveries shared.DeliveryRepository,
	reads shared.CommandReads,
	dispatcher Dispatcher,
	clk clock.Clock,
	cfg config.Config,
) AutomationCommands {
	return &automationCommandsImpl{
		triggers:   triggers,
		deliveries: deliveries,
		reads:      reads,
		dispatcher: dispatcher,
		clock:      clk,
		mail:       cfg.Mail,
	}
}

func (a *automationCommandsImpl) EmitEvent(ctx context.Context, event automation.Event) error {
	if _, ok := automation.ParseEventType(string(event.Type)); !ok {
		return errs.ErrUnknownEventType
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.clock.Now()
	}

	for _, action := range automation.ActionsFor(event.Type) {
		switch action.Kind {
		case automation.ActionSendNow:
			if err := a.deliver(ctx, event, action.Template, a.resolveRecipient(event, action.Recipient)); err != nil {
				slog.Error("immediate automation action failed",
					"event_type", event.Type,
					"entity_id", event.EntityID,
					"template", action.Template,
					"error", err.Error())
			}
		case automation.ActionScheduleAfter:
			if err := a.schedule(ctx, event, action); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *automationCommandsImpl) Dispatch(ctx context.Context, event automation.Event) error {
	var firstErr error
	for _, action := range automation.ActionsFor(event.Type) {
		if action.Kind != automation.ActionSendNow {
			continue
		}
		err := a.deliver(ctx, event, action.Template, a.resolveRecipient(event, action.Recipient))
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *automationCommandsImpl) DispatchScheduled(ctx context.Context, trigger shared.TriggerRecord) error {
	eventType, ok := automation.ParseEventType(trigger.EventType)
	if !ok {
		return errs.ErrUnknownEventType
	}
	event := automation.Event{
		Type:       eventType,
		EntityID:   trigger.EntityID,
		Payload:    trigger.Payload,
		OccurredAt: a.clock.Now(),
	}
	return a.deliver(ctx, event, automation.TemplateType(trigger.TemplateType), trigger.Recipient)
}

// deliver performs one idempotent send. The DeliveryRecord is inserted
// before the dispatcher call: a crash between the two leaves a record
// without a send, which is the accepted failure mode (a retry would
// otherwise double-send). When the dispatcher returns a failure the send
// is known not to have happened, so the record is released again and a
// retry can claim the dedup key.
func (a *automationCommandsImpl) deliver(ctx context.Context, event automation.Event, template automation.TemplateType, recipient string) error {
	if recipient == "" {
		slog.Debug("skipping automation send without recipient",
			"event_type", event.Type, "template", template)
		return nil
	}

	snap, err := a.reads.TemplateByType(ctx, string(template))
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Warn("message template missing, action skipped", "template", template)
			return nil
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	dedupKey := automation.DedupKey(event.Type, event.EntityID, template)
	inserted, err := a.deliveries.TryInsert(ctx, dedupKey, string(event.Type), event.EntityID, string(template), recipient, a.clock.Now())
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !inserted {
		// Already delivered for this (event, entity, template): no-op.
		return nil
	}

	rendered, missing := automation.RenderTemplate(automation.MessageTemplate{
		Type:    template,
		Subject: snap.Subject,
		Body:    snap.Body,
	}, a.templateVars(event))
	if len(missing) > 0 {
		slog.Warn("template rendered with unresolved variables",
			"template", template, "missing", missing)
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.mail.Timeout)
	defer cancel()
	if err := a.dispatcher.Send(sendCtx, "email", recipient, rendered.Subject, rendered.Body); err != nil {
		slog.Error("notification dispatch failed",
			"recipient", recipient, "template", template, "error", err.Error())
		if delErr := a.deliveries.Delete(ctx, dedupKey); delErr != nil {
			slog.Error("failed to release delivery record after send failure",
				"dedup_key", dedupKey, "error", delErr.Error())
		}
		return errs.Mark(err, errs.ErrDispatchFailed)
	}
	return nil
}

func (a *automationCommandsImpl) schedule(ctx context.Context, event automation.Event, action automation.Action) error {
	fireAt := event.OccurredAt.Add(action.Offset)
	if action.OffsetFrom == automation.FromBookingStart {
		start, err := time.Parse(time.RFC3339, event.Payload[automation.PayloadBookingStart])
		if err != nil {
			slog.Warn("trigger offset base missing, falling back to event time",
				"event_type", event.Type, "entity_id", event.EntityID)
		} else {
			fireAt = start.Add(action.Offset)
		}
	}

	record := shared.TriggerRecord{
		ID:           uuid.New(),
		FireAt:       fireAt,
		EventType:    string(event.Type),
		EntityID:     event.EntityID,
		TemplateType: string(action.Template),
		Recipient:    a.resolveRecipient(event, action.Recipient),
		Payload:      event.Payload,
		Status:       shared.TriggerStatusPending,
	}
	if err := a.triggers.Create(ctx, record); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (a *automationCommandsImpl) resolveRecipient(event automation.Event, role automation.RecipientRole) string {
	switch role {
	case automation.RoleContact:
		return event.Payload[automation.PayloadRecipient]
	case automation.RoleOwner:
		return a.mail.OwnerEmail
	case automation.RoleSupplier:
		return event.Payload[automation.PayloadSupplierEmail]
	}
	return ""
}

func (a *automationCommandsImpl) templateVars(event automation.Event) map[string]string {
	vars := make(map[string]string, len(event.Payload)+1)
	for k, v := range event.Payload {
		vars[k] = v
	}
	if _, ok := vars["business_name"]; !ok {
		vars["business_name"] = a.mail.Business
	}
	return vars
}
