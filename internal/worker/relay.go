// Package worker processes the messages the web server queues on the broker.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"freelance/internal/amqp"
	"freelance/internal/log"
	"freelance/internal/services"
)

// Relay delivers queued emails and records work day changes.
type Relay struct {
	mailer services.Mailer
	events *log.StructuredLogger
}

func NewRelay(mailer services.Mailer, logger *log.Logger) *Relay {
	if mailer == nil {
		mailer = services.LogMailer{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Relay{
		mailer: mailer,
		events: log.NewStructuredLogger(logger.WithComponent(log.ComponentWorker)),
	}
}

// Handlers wires the relay into an amqp.Consumer.
func (w *Relay) Handlers() amqp.Handlers {
	return amqp.Handlers{
		Email:   w.HandleEmail,
		WorkDay: w.HandleWorkDay,
	}
}

// HandleEmail hands a queued email to the mailer. Messages without a
// recipient are dropped, since retrying cannot fix them.
func (w *Relay) HandleEmail(ctx context.Context, msg *amqp.EmailMessage) error {
	if msg.To == "" {
		slog.WarnContext(ctx, "Dropping email without recipient", "subject", msg.Subject)
		return nil
	}
	if err := w.mailer.SendEmail(ctx, msg.To, msg.Subject, msg.Body, msg.Link); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// HandleWorkDay writes the change to the audit log.
func (w *Relay) HandleWorkDay(ctx context.Context, event *amqp.WorkDayEvent) error {
	op := log.OpAssign
	if event.ClientID == "" {
		op = log.OpUnassign
	}
	w.events.LogWorkDayChanged(ctx, op, event.AccountID, event.Date, event.ClientID)
	return nil
}
