package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/checkout"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

// errInProgress is returned while another invocation handles the same order; SQS
// redelivers the message after the visibility timeout.
var errInProgress = errors.New("order event is being handled by another invocation")

// Processor consumes order.created events and runs the matching order processor once
// per order.
type Processor struct {
	orders OrderProcessor
	dedupe Deduper
	logger *slog.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(p OrderProcessor, d Deduper, logger *slog.Logger) *Processor {
	return &Processor{orders: p, dedupe: d, logger: logger}
}

// Handle processes an SQS batch and reports the messages that should be retried.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker error", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev orders.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.Type != orders.EventOrderCreated {
		p.logger.Info("ignoring event", "type", ev.Type, "message_id", rec.MessageId)
		return nil
	}
	if ev.OrderID == "" {
		return fmt.Errorf("event %s has no order_id", rec.MessageId)
	}

	logger := p.logger.With("order_id", ev.OrderID, "checkout_mode", ev.CheckoutMode)
	logger.Info("received order event", "message_id", rec.MessageId)

	proceed, err := p.begin(ctx, ev.OrderID, logger)
	if err != nil || !proceed {
		return err
	}

	body, err := p.dispatch(ctx, ev)
	switch {
	case err == nil:
	case checkout.KindOf(err) == checkout.KindConflict:
		// another caller holds the claim; done only once the order shows as invoiced
		invoiced, serr := p.invoiced(ctx, ev.OrderID)
		if serr != nil || !invoiced {
			p.markFailed(ctx, ev.OrderID, err, logger)
			if serr != nil {
				return fmt.Errorf("reload order %s: %w", ev.OrderID, serr)
			}
			return fmt.Errorf("order %s claimed but not invoiced yet: %w", ev.OrderID, err)
		}
		logger.Info("order already processed elsewhere")
		body = fmt.Sprintf(`{"order_id":%q,"note":"already processed"}`, ev.OrderID)
	case checkout.KindOf(err) == checkout.KindNotFound:
		p.markFailed(ctx, ev.OrderID, err, logger)
		logger.Error("dropping event for missing order")
		return nil
	default:
		p.markFailed(ctx, ev.OrderID, err, logger)
		return fmt.Errorf("process order %s: %w", ev.OrderID, err)
	}

	if err := p.dedupe.MarkDone(ctx, idempotency.ScopeWorker, ev.OrderID, body, http.StatusOK); err != nil {
		return fmt.Errorf("failed to update idempotency: %w", err)
	}
	logger.Info("order event handled")
	return nil
}

// begin records that this invocation handles the order. It returns false when the
// event was already handled.
func (p *Processor) begin(ctx context.Context, orderID string, logger *slog.Logger) (bool, error) {
	created, err := p.dedupe.CreateIfNotExists(ctx, idempotency.ScopeWorker, orderID, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to create idempotency record: %w", err)
	}
	if created {
		return true, nil
	}

	rec, err := p.dedupe.Get(ctx, idempotency.ScopeWorker, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	if rec == nil {
		return false, fmt.Errorf("idempotency record for %s vanished", orderID)
	}

	switch rec.Status {
	case idempotency.StatusDone:
		logger.Info("duplicate event, already handled")
		return false, nil
	case idempotency.StatusFailed:
		retried, err := p.dedupe.Retry(ctx, idempotency.ScopeWorker, orderID)
		if err != nil {
			return false, fmt.Errorf("failed to retry idempotency record: %w", err)
		}
		if !retried {
			// a concurrent delivery took the retry
			return false, errInProgress
		}
		logger.Info("retrying previously failed order event")
		return true, nil
	default:
		return false, errInProgress
	}
}

func (p *Processor) dispatch(ctx context.Context, ev orders.Event) (string, error) {
	var (
		resp any
		err  error
	)
	if ev.CheckoutMode == orders.ModeInstant {
		resp, err = p.orders.ProcessInstant(ctx, validation.ProcessInstantRequest{OrderID: ev.OrderID})
	} else {
		resp, err = p.orders.ProcessManual(ctx, validation.ProcessManualRequest{OrderID: ev.OrderID})
	}
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

func (p *Processor) invoiced(ctx context.Context, orderID string) (bool, error) {
	report, err := p.orders.OrderStatus(ctx, orderID)
	if err != nil {
		return false, err
	}
	return report.Status == orders.StatusInvoiceSent, nil
}

func (p *Processor) markFailed(ctx context.Context, orderID string, cause error, logger *slog.Logger) {
	if err := p.dedupe.MarkFailed(ctx, idempotency.ScopeWorker, orderID, cause.Error()); err != nil {
		logger.Warn("could not mark idempotency record failed", "error", err)
	}
}
