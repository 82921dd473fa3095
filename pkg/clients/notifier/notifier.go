package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

// Client posts billing events to an external webhook. It is a fire-and-forget
// integration point: callers log delivery failures and move on.
type Client interface {
	InvoiceVerified(ctx context.Context, inv *models.Invoice, approved bool) error
	LowStock(ctx context.Context, products []models.Product) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
}

// NewClient builds a webhook client for the given URL.
func NewClient(webhookURL string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(webhookURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &WebhookClient{httpClient: restyClient}
}

type invoiceEvent struct {
	Event         string  `json:"event"`
	InvoiceID     string  `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	UserID        string  `json:"userId"`
	Status        string  `json:"status"`
	TotalAmount   float64 `json:"totalAmount"`
	VerifiedBy    string  `json:"verifiedBy"`
}

type lowStockEvent struct {
	Event    string         `json:"event"`
	Products []stockWarning `json:"products"`
}

type stockWarning struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	StockQuantity float64 `json:"stockQuantity"`
	MinStockLevel float64 `json:"minStockLevel"`
}

// InvoiceVerified reports an admin decision to the webhook.
func (c *WebhookClient) InvoiceVerified(ctx context.Context, inv *models.Invoice, approved bool) error {
	event := "invoice.cancelled"
	if approved {
		event = "invoice.completed"
	}
	return c.post(ctx, invoiceEvent{
		Event:         event,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		UserID:        inv.UserID,
		Status:        string(inv.Status),
		TotalAmount:   inv.TotalAmount,
		VerifiedBy:    inv.VerifiedBy,
	})
}

// LowStock reports products at or below their minimum stock level.
func (c *WebhookClient) LowStock(ctx context.Context, products []models.Product) error {
	warnings := make([]stockWarning, 0, len(products))
	for _, p := range products {
		warnings = append(warnings, stockWarning{
			ProductID:     p.ID,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			MinStockLevel: p.MinStockLevel,
		})
	}
	return c.post(ctx, lowStockEvent{Event: "stock.low", Products: warnings})
}

func (c *WebhookClient) post(ctx context.Context, payload any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("")
	if err != nil {
		return fmt.Errorf("post webhook event: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
