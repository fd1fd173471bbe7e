// Package integrations talks to the invoice and e-mail functions that live outside
// this service. Both are invoked synchronously and answer with {"success": bool}.
package integrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/orders"
)

// ErrRejected is returned when a collaborator answers with success=false.
var ErrRejected = errors.New("collaborator rejected request")

// E-mail types understood by the confirmation function.
const (
	EmailTypeInstantConfirmation = "instant_confirmation"
	EmailTypeManualConfirmation  = "manual_confirmation"
)

// FunctionInvoker calls a named function with a JSON payload.
type FunctionInvoker interface {
	InvokeJSON(ctx context.Context, functionName string, in, out any) error
}

type result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r result) err(op string) error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("%s: %w", op, ErrRejected)
	}
	return fmt.Errorf("%s: %w: %s", op, ErrRejected, r.Error)
}

// InvoiceClient asks the invoice function to render and store the PDF for an order.
type InvoiceClient struct {
	invoker      FunctionInvoker
	functionName string
}

func NewInvoiceClient(invoker FunctionInvoker, functionName string) *InvoiceClient {
	return &InvoiceClient{invoker: invoker, functionName: functionName}
}

type invoiceRequest struct {
	OrderID string `json:"order_id"`
}

type invoiceResponse struct {
	result
	InvoiceNumber string `json:"invoice_number,omitempty"`
	PDFURL        string `json:"pdf_url,omitempty"`
}

func (c *InvoiceClient) GenerateInvoice(ctx context.Context, orderID string) (orders.InvoiceDetails, error) {
	var resp invoiceResponse
	if err := c.invoker.InvokeJSON(ctx, c.functionName, invoiceRequest{OrderID: orderID}, &resp); err != nil {
		return orders.InvoiceDetails{}, fmt.Errorf("generate invoice: %w", err)
	}
	if err := resp.err("generate invoice"); err != nil {
		return orders.InvoiceDetails{}, err
	}
	return orders.InvoiceDetails{Number: resp.InvoiceNumber, PDFURL: resp.PDFURL}, nil
}

// ConfirmationEmail describes one order confirmation mail.
type ConfirmationEmail struct {
	OrderID        string `json:"order_id"`
	IncludeInvoice bool   `json:"include_invoice"`
	EmailType      string `json:"email_type"`
}

// EmailClient asks the e-mail function to send order confirmations.
type EmailClient struct {
	invoker      FunctionInvoker
	functionName string
}

func NewEmailClient(invoker FunctionInvoker, functionName string) *EmailClient {
	return &EmailClient{invoker: invoker, functionName: functionName}
}

func (c *EmailClient) SendOrderConfirmation(ctx context.Context, mail ConfirmationEmail) error {
	var resp result
	if err := c.invoker.InvokeJSON(ctx, c.functionName, mail, &resp); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return resp.err("send confirmation")
}
