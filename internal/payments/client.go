// AngelaMos | 2026
// client.go

package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const upstreamLabel = "payments"

// Client is a form-encoded REST client for a Stripe-style processor. It
// never retries; the caller sees the first failure.
type Client struct {
	http          *resty.Client
	webhookSecret string
	tolerance     time.Duration
	metrics       *core.Metrics
}

func NewClient(cfg config.PaymentsConfig, metrics *core.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Accept", "application/json")
	if cfg.APIVersion != "" {
		httpClient.SetHeader("Stripe-Version", cfg.APIVersion)
	}

	return &Client{
		http:          httpClient,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     cfg.WebhookTolerance,
		metrics:       metrics,
	}
}

// CallOption adjusts a single request.
type CallOption func(*resty.Request)

// OnAccount sends the request on behalf of a connected account.
func OnAccount(accountID string) CallOption {
	return func(r *resty.Request) {
		if accountID != "" {
			r.SetHeader("Stripe-Account", accountID)
		}
	}
}

type CreateAccountParams struct {
	Email    string
	Country  string
	TenantID string
}

func (c *Client) CreateAccount(ctx context.Context, p CreateAccountParams) (*Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	setIf(form, "email", p.Email)
	setIf(form, "country", p.Country)
	form.Set("capabilities[card_payments][requested]", "true")
	form.Set("capabilities[transfers][requested]", "true")
	form.Set("metadata[tenant_id]", p.TenantID)

	var acct Account
	if err := c.post(ctx, "create account", "/v1/accounts", form, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var acct Account
	if err := c.get(ctx, "get account", "/v1/accounts/"+url.PathEscape(accountID), &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) CreateAccountLink(
	ctx context.Context,
	accountID, refreshURL, returnURL string,
) (*AccountLink, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("type", "account_onboarding")
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)

	var link AccountLink
	if err := c.post(ctx, "create account link", "/v1/account_links", form, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

type CreateCustomerParams struct {
	Email    string
	Name     string
	TenantID string
}

func (c *Client) CreateCustomer(ctx context.Context, p CreateCustomerParams) (*Customer, error) {
	form := url.Values{}
	setIf(form, "email", p.Email)
	setIf(form, "name", p.Name)
	form.Set("metadata[tenant_id]", p.TenantID)

	var cust Customer
	if err := c.post(ctx, "create customer", "/v1/customers", form, &cust); err != nil {
		return nil, err
	}
	return &cust, nil
}

type PaymentIntentParams struct {
	Amount               int64
	Currency             string
	Customer             string
	PaymentMethod        string
	Description          string
	TenantID             string
	ApplicationFeeAmount int64
}

func (c *Client) CreatePaymentIntent(
	ctx context.Context,
	p PaymentIntentParams,
	opts ...CallOption,
) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("currency", strings.ToLower(p.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	setIf(form, "customer", p.Customer)
	setIf(form, "payment_method", p.PaymentMethod)
	setIf(form, "description", p.Description)
	form.Set("metadata[tenant_id]", p.TenantID)
	if p.ApplicationFeeAmount > 0 {
		form.Set("application_fee_amount", strconv.FormatInt(p.ApplicationFeeAmount, 10))
	}

	var pi PaymentIntent
	if err := c.post(ctx, "create payment intent", "/v1/payment_intents", form, &pi, opts...); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (c *Client) GetPaymentIntent(ctx context.Context, id string, opts ...CallOption) (*PaymentIntent, error) {
	var pi PaymentIntent
	if err := c.get(ctx, "get payment intent", "/v1/payment_intents/"+url.PathEscape(id), &pi, opts...); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*PaymentMethod, error) {
	var pm PaymentMethod
	if err := c.get(ctx, "get payment method", "/v1/payment_methods/"+url.PathEscape(id), &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (c *Client) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*PaymentMethod, error) {
	form := url.Values{}
	form.Set("customer", customerID)

	var pm PaymentMethod
	path := "/v1/payment_methods/" + url.PathEscape(paymentMethodID) + "/attach"
	if err := c.post(ctx, "attach payment method", path, form, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethod, error) {
	var pm PaymentMethod
	path := "/v1/payment_methods/" + url.PathEscape(paymentMethodID) + "/detach"
	if err := c.post(ctx, "detach payment method", path, url.Values{}, &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

// SetDefaultPaymentMethod makes paymentMethodID the customer's invoice default.
func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	form := url.Values{}
	form.Set("invoice_settings[default_payment_method]", paymentMethodID)

	var cust Customer
	return c.post(ctx, "set default payment method", "/v1/customers/"+url.PathEscape(customerID), form, &cust)
}

type SubscriptionParams struct {
	Customer string
	PriceID  string
	TenantID string
}

func (c *Client) CreateSubscription(ctx context.Context, p SubscriptionParams) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", p.Customer)
	form.Set("items[0][price]", p.PriceID)
	form.Set("metadata[tenant_id]", p.TenantID)

	var sub Subscription
	if err := c.post(ctx, "create subscription", "/v1/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	err := c.send(ctx, "cancel subscription", func(req *resty.Request) (*resty.Response, error) {
		return req.SetResult(&sub).Delete("/v1/subscriptions/" + url.PathEscape(subscriptionID))
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

type TransferParams struct {
	Amount      int64
	Currency    string
	Destination string
	Description string
	TenantID    string
}

func (c *Client) CreateTransfer(ctx context.Context, p TransferParams) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("currency", strings.ToLower(p.Currency))
	form.Set("destination", p.Destination)
	setIf(form, "description", p.Description)
	setIf(form, "metadata[tenant_id]", p.TenantID)

	var tr Transfer
	if err := c.post(ctx, "create transfer", "/v1/transfers", form, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (c *Client) post(
	ctx context.Context,
	op, path string,
	form url.Values,
	out any,
	opts ...CallOption,
) error {
	return c.send(ctx, op, func(req *resty.Request) (*resty.Response, error) {
		return req.SetFormDataFromValues(form).SetResult(out).Post(path)
	}, opts...)
}

func (c *Client) get(ctx context.Context, op, path string, out any, opts ...CallOption) error {
	return c.send(ctx, op, func(req *resty.Request) (*resty.Response, error) {
		return req.SetResult(out).Get(path)
	}, opts...)
}

func (c *Client) send(
	ctx context.Context,
	op string,
	call func(*resty.Request) (*resty.Response, error),
	opts ...CallOption,
) (err error) {
	ctx, span := core.StartSpan(ctx, "payments."+strings.ReplaceAll(op, " ", "_"),
		attribute.String("payments.operation", op),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
		c.metrics.ObserveUpstream(upstreamLabel, op, err, time.Since(start))
	}()

	req := c.http.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := call(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, core.ErrUpstream)
	}

	if resp.IsError() {
		apiErr := &APIError{Op: op, Status: resp.StatusCode()}
		var body apiErrorBody
		if json.Unmarshal(resp.Body(), &body) == nil {
			apiErr.Type = body.Error.Type
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
			apiErr.Param = body.Error.Param
		}
		return apiErr
	}

	return nil
}

func setIf(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
