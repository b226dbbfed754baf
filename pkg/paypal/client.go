package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errLoggerRequired      = errors.New("paypal logger is required")
)

// Client exposes the PayPal order primitives with centralized auth,
// logging, and error mapping.
type Client struct {
	sdk    *sdk.Client
	live   bool
	logger *logger.Logger
}

// OrderParams describes a provider-side order to create for checkout approval.
type OrderParams struct {
	ReferenceID string
	CustomID    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

// OrderResult is the provider-side view of a created order.
type OrderResult struct {
	ProviderOrderID string
	Status          string
	ApprovalURL     string
}

// CaptureResult is the provider-side view of a captured payment.
type CaptureResult struct {
	ProviderOrderID string
	CaptureID       string
	Status          string
	CustomID        string
}

// RefundResult is the provider-side view of a refund.
type RefundResult struct {
	RefundID string
	Status   string
}

// OrderDetails is the read-through view of an existing provider order.
type OrderDetails struct {
	ProviderOrderID string
	Status          string
	Intent          string
}

// NewClient initializes the PayPal wrapper and fetches an access token
// so misconfigured credentials fail at boot rather than at checkout.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.ClientSecret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	base := sdk.APIBaseSandBox
	if cfg.Live() {
		base = sdk.APIBaseLive
	}

	client, err := sdk.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}
	if cfg.Timeout > 0 {
		client.Client = &http.Client{Timeout: cfg.Timeout}
	}

	if _, err := client.GetAccessToken(ctx); err != nil {
		return nil, mapError(err, "authenticate")
	}

	c := &Client{sdk: client, live: cfg.Live(), logger: logg}
	logg.Info(ctx, "paypal client initialized")
	return c, nil
}

// Live reports whether the client targets the production PayPal API.
func (c *Client) Live() bool {
	if c == nil {
		return false
	}
	return c.live
}

// CreateOrder creates a provider order awaiting buyer approval.
func (c *Client) CreateOrder(ctx context.Context, params OrderParams) (*OrderResult, error) {
	c.log(ctx, "request", "create_order", map[string]any{
		"reference_id": params.ReferenceID,
		"amount":       params.Amount.StringFixed(2),
		"currency":     params.Currency,
	})

	units := []sdk.PurchaseUnitRequest{{
		ReferenceID: params.ReferenceID,
		CustomID:    params.CustomID,
		Description: params.Description,
		Amount: &sdk.PurchaseUnitAmount{
			Currency: params.Currency,
			Value:    params.Amount.StringFixed(2),
		},
	}}

	var appCtx *sdk.ApplicationContext
	if params.ReturnURL != "" || params.CancelURL != "" {
		appCtx = &sdk.ApplicationContext{
			ReturnURL: params.ReturnURL,
			CancelURL: params.CancelURL,
		}
	}

	order, err := c.sdk.CreateOrder(ctx, sdk.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, mapError(err, "create order")
	}

	result := &OrderResult{
		ProviderOrderID: order.ID,
		Status:          order.Status,
		ApprovalURL:     approvalLink(order.Links),
	}
	c.log(ctx, "response", "create_order", map[string]any{
		"provider_order_id": result.ProviderOrderID,
		"status":            result.Status,
	})
	return result, nil
}

// CaptureOrder captures an approved provider order.
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	c.log(ctx, "request", "capture_order", map[string]any{"provider_order_id": providerOrderID})

	resp, err := c.sdk.CaptureOrder(ctx, providerOrderID, sdk.CaptureOrderRequest{})
	if err != nil {
		c.log(ctx, "error", "capture_order", map[string]any{"error": err.Error()})
		return nil, mapError(err, "capture order")
	}

	result := &CaptureResult{
		ProviderOrderID: resp.ID,
		Status:          resp.Status,
	}
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			result.CaptureID = capture.ID
			result.CustomID = capture.CustomID
			break
		}
		if result.CaptureID != "" {
			break
		}
	}

	c.log(ctx, "response", "capture_order", map[string]any{
		"provider_order_id": result.ProviderOrderID,
		"capture_id":        result.CaptureID,
		"status":            result.Status,
	})
	return result, nil
}

// GetOrder reads back an existing provider order.
func (c *Client) GetOrder(ctx context.Context, providerOrderID string) (*OrderDetails, error) {
	c.log(ctx, "request", "get_order", map[string]any{"provider_order_id": providerOrderID})

	order, err := c.sdk.GetOrder(ctx, providerOrderID)
	if err != nil {
		c.log(ctx, "error", "get_order", map[string]any{"error": err.Error()})
		return nil, mapError(err, "get order")
	}

	return &OrderDetails{
		ProviderOrderID: order.ID,
		Status:          order.Status,
		Intent:          order.Intent,
	}, nil
}

// RefundCapture refunds a captured payment, partially when amount is set.
func (c *Client) RefundCapture(ctx context.Context, captureID string, amount *decimal.Decimal, currency string) (*RefundResult, error) {
	c.log(ctx, "request", "refund_capture", map[string]any{"capture_id": captureID})

	req := sdk.RefundCaptureRequest{}
	if amount != nil {
		req.Amount = &sdk.Money{
			Currency: currency,
			Value:    amount.StringFixed(2),
		}
	}

	resp, err := c.sdk.RefundCapture(ctx, captureID, req)
	if err != nil {
		c.log(ctx, "error", "refund_capture", map[string]any{"error": err.Error()})
		return nil, mapError(err, "refund capture")
	}

	result := &RefundResult{RefundID: resp.ID, Status: resp.Status}
	c.log(ctx, "response", "refund_capture", map[string]any{
		"refund_id": result.RefundID,
		"status":    result.Status,
	})
	return result, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paypal %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paypal %s", phase))
	}
}

func approvalLink(links []sdk.Link) string {
	for _, link := range links {
		if strings.EqualFold(link.Rel, "approve") {
			return link.Href
		}
	}
	return ""
}

func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sdk.ErrorResponse
	if errors.As(err, &apiErr) {
		code := pkgerrors.CodeDependency
		if apiErr.Response != nil {
			code = domainCodeForStatus(apiErr.Response.StatusCode)
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("paypal %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("paypal %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
