package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/integrations"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

const manualMessage = "Order received. It will be reviewed and confirmed by the shop."

type ProcessInstantResponse struct {
	OrderNumber      string     `json:"order_number"`
	InvoiceGenerated bool       `json:"invoice_generated"`
	InvoiceNumber    string     `json:"invoice_number,omitempty"`
	EmailSent        bool       `json:"email_sent"`
	ProcessedAt      time.Time  `json:"processed_at"`
	Email            StepResult `json:"email"`
	StatusUpdate     StepResult `json:"status_update"`
}

type ProcessManualResponse struct {
	OrderNumber     string     `json:"order_number"`
	TempOrderNumber string     `json:"temp_order_number"`
	ProcessingMode  string     `json:"processing_mode"`
	EmailSent       bool       `json:"email_sent"`
	ProcessedAt     time.Time  `json:"processed_at"`
	Message         string     `json:"message"`
	ManualDetails   StepResult `json:"manual_details"`
	Email           StepResult `json:"email"`
}

// ProcessInstant generates the invoice for an order, then sends the confirmation
// e-mail and marks the order invoice_sent. Only the invoice is required to succeed.
// The order is claimed first, so a second run fails with a conflict.
func (s *Service) ProcessInstant(ctx context.Context, req validation.ProcessInstantRequest) (*ProcessInstantResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	emailCfg, err := s.emailConfig(ctx, order.ShopID)
	if err != nil {
		return nil, err
	}

	owner := s.newID()
	if err := s.orders.Claim(ctx, order.OrderID, owner); err != nil {
		if errors.Is(err, orders.ErrAlreadyClaimed) {
			return nil, conflict("order is already being processed", err)
		}
		return nil, storeError("could not claim order", err)
	}

	callCtx, cancel := s.callContext(ctx)
	invoice, err := s.invoices.GenerateInvoice(callCtx, order.OrderID)
	cancel()
	if err != nil {
		s.logger.Error("invoice generation failed", "order_id", order.OrderID, "error", err)
		s.releaseClaim(ctx, order.OrderID, owner)
		return nil, upstream("invoice generation failed", err)
	}

	resp := &ProcessInstantResponse{
		OrderNumber:      order.OrderNumber,
		InvoiceGenerated: true,
		InvoiceNumber:    invoice.Number,
	}

	if emailCfg.Usable() {
		resp.Email = s.softStep(ctx, order.OrderID, StepEmail, func(ctx context.Context) error {
			return s.emails.SendOrderConfirmation(ctx, integrations.ConfirmationEmail{
				OrderID:        order.OrderID,
				IncludeInvoice: true,
				EmailType:      integrations.EmailTypeInstantConfirmation,
			})
		})
	}
	resp.EmailSent = resp.Email.Succeeded

	resp.StatusUpdate = s.softStep(ctx, order.OrderID, StepStatusUpdate, func(ctx context.Context) error {
		return s.orders.CompleteInvoice(ctx, order.OrderID, order.Status, invoice)
	})
	resp.ProcessedAt = s.now()

	s.logger.Info("instant order processed",
		"order_id", order.OrderID,
		"invoice_number", invoice.Number,
		"email_sent", resp.EmailSent,
		"status_updated", resp.StatusUpdate.Succeeded,
	)
	return resp, nil
}

// releaseClaim drops the claim even when ctx is already cancelled, so a failed run
// does not block later ones.
func (s *Service) releaseClaim(ctx context.Context, orderID, owner string) {
	releaseCtx, cancel := s.callContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.orders.ReleaseClaim(releaseCtx, orderID, owner); err != nil {
		s.logger.Warn("could not release claim", "order_id", orderID, "error", err)
	}
}

// ProcessManual records the temporary order number and bank account selection, then
// sends a confirmation e-mail without invoice. The order status is left unchanged.
func (s *Service) ProcessManual(ctx context.Context, req validation.ProcessManualRequest) (*ProcessManualResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	resp := &ProcessManualResponse{ProcessingMode: orders.ModeManual, Message: manualMessage}

	if req.TempOrderNumber != nil || req.BankAccountID != nil {
		resp.ManualDetails = s.softStep(ctx, req.OrderID, StepManualDetails, func(ctx context.Context) error {
			return s.orders.SetManualDetails(ctx, req.OrderID, req.TempOrderNumber, req.BankAccountID)
		})
	}

	order, err := s.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	emailCfg, err := s.emailConfig(ctx, order.ShopID)
	if err != nil {
		return nil, err
	}

	if emailCfg.Usable() {
		resp.Email = s.softStep(ctx, order.OrderID, StepEmail, func(ctx context.Context) error {
			return s.emails.SendOrderConfirmation(ctx, integrations.ConfirmationEmail{
				OrderID:        order.OrderID,
				IncludeInvoice: false,
				EmailType:      integrations.EmailTypeManualConfirmation,
			})
		})
	}

	resp.OrderNumber = order.OrderNumber
	resp.EmailSent = resp.Email.Succeeded
	resp.ProcessedAt = s.now()
	switch {
	case req.TempOrderNumber != nil:
		resp.TempOrderNumber = *req.TempOrderNumber
	case order.TempOrderNumber != "":
		resp.TempOrderNumber = order.TempOrderNumber
	default:
		resp.TempOrderNumber = order.OrderNumber
	}

	s.logger.Info("manual order processed",
		"order_id", order.OrderID,
		"temp_order_number", resp.TempOrderNumber,
		"email_sent", resp.EmailSent,
	)
	return resp, nil
}
