// Package stripe adapts Stripe Checkout and Stripe webhooks to the payment
// types used by the services.
package stripe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cimillas/charity-raffle/internal/domain"
	"github.com/cimillas/charity-raffle/internal/payment"
	"github.com/sirupsen/logrus"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Stripe only accepts checkout expiries between 30 minutes and 24 hours out.
const (
	minSessionLifetime = 31 * time.Minute
	maxSessionLifetime = 24 * time.Hour
)

// Client creates hosted checkout sessions.
type Client struct {
	api *client.API
	now func() time.Time
}

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
	retries    int64
}

type Option func(*options)

// WithBaseURL points the client at a different API host (tests, mocks).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

func WithMaxRetries(n int64) Option {
	return func(o *options) { o.retries = n }
}

// NewClient builds a client for the given secret key.
func NewClient(secretKey string, opts ...Option) *Client {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logrus.StandardLogger(),
		retries:    2,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &stripego.BackendConfig{
		HTTPClient:        o.httpClient,
		LeveledLogger:     o.logger,
		MaxNetworkRetries: stripego.Int64(o.retries),
	}
	if o.baseURL != "" {
		cfg.URL = stripego.String(o.baseURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, cfg)

	return &Client{
		api: client.New(secretKey, &stripego.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		now: time.Now,
	}
}

// CreateCheckoutSession implements the gateway used by entry intake and
// donations. Any failure is reported as domain.ErrPaymentCollaborator.
func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(req.Currency),
					UnitAmount: stripego.Int64(req.UnitAmount),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripego.String(req.Name),
						Description: stripego.String(req.Description),
					},
				},
				Quantity: stripego.Int64(int64(req.Quantity)),
			},
		},
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
		Metadata:   req.Metadata,
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	var expiresAt time.Time
	if !req.ExpiresAt.IsZero() {
		expiresAt = c.clampExpiry(req.ExpiresAt).Truncate(time.Second)
		params.ExpiresAt = stripego.Int64(expiresAt.Unix())
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return payment.CheckoutSession{}, fmt.Errorf("%w: create checkout session: %v", domain.ErrPaymentCollaborator, err)
	}
	if sess.ID == "" || sess.URL == "" {
		return payment.CheckoutSession{}, fmt.Errorf("%w: checkout session missing id or url", domain.ErrPaymentCollaborator)
	}
	// The clamp may push expiry past the requested instant; callers extend
	// their hold to whatever Stripe reports.
	if sess.ExpiresAt > 0 {
		expiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return payment.CheckoutSession{ID: sess.ID, URL: sess.URL, ExpiresAt: expiresAt}, nil
}

func (c *Client) clampExpiry(t time.Time) time.Time {
	now := c.now()
	if t.Before(now.Add(minSessionLifetime)) {
		return now.Add(minSessionLifetime)
	}
	if t.After(now.Add(maxSessionLifetime)) {
		return now.Add(maxSessionLifetime)
	}
	return t
}
