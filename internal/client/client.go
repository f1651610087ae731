// Package client is a Go client for the SEAMS REST API.
//
// Every call takes an explicit *auth.Session created by Login. Requests are
// throttled with a token bucket and are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/ledger"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/money"
	"github.com/seams-estates/seams/internal/service"
)

const defaultTimeout = 15 * time.Second

// Client talks to one SEAMS server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests at rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login signs in and returns a new session.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.Session, error) {
	var result service.LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.send(ctx, "", http.MethodPost, "/api/auth/login/", body, &result); err != nil {
		return nil, err
	}
	return auth.NewSession(result.Token, result.User, result.TenantID, result.ExpiresAt), nil
}

// Logout ends the session. Later calls with it fail with ErrSessionExpired.
func (c *Client) Logout(sess *auth.Session) {
	if sess != nil {
		sess.Close()
	}
}

// Me returns the signed-in account.
func (c *Client) Me(ctx context.Context, sess *auth.Session) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, sess, http.MethodGet, "/api/auth/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Tenants lists the tenancies visible to the session.
func (c *Client) Tenants(ctx context.Context, sess *auth.Session) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := c.do(ctx, sess, http.MethodGet, "/api/tenants/", nil, &tenants)
	return tenants, err
}

// Tenant fetches one tenancy with its house.
func (c *Client) Tenant(ctx context.Context, sess *auth.Session, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := c.do(ctx, sess, http.MethodGet, "/api/tenants/"+url.PathEscape(id)+"/", nil, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Bills lists bills, filtered to tenantID when set.
func (c *Client) Bills(ctx context.Context, sess *auth.Session, tenantID string) ([]models.Bill, error) {
	var bills []models.Bill
	err := c.do(ctx, sess, http.MethodGet, withTenant("/api/bills/", tenantID), nil, &bills)
	return bills, err
}

// Payments lists payments, filtered to tenantID when set.
func (c *Client) Payments(ctx context.Context, sess *auth.Session, tenantID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := c.do(ctx, sess, http.MethodGet, withTenant("/api/payments/", tenantID), nil, &payments)
	return payments, err
}

// RecordPayment submits an unverified payment.
func (c *Client) RecordPayment(ctx context.Context, sess *auth.Session, in service.RecordPaymentInput) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, sess, http.MethodPost, "/api/payments/", in, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifyPayment verifies a payment. A repeat fails with ErrAlreadyVerified.
func (c *Client) VerifyPayment(ctx context.Context, sess *auth.Session, paymentID string) (*models.Verification, error) {
	var result models.Verification
	path := "/api/payments/" + url.PathEscape(paymentID) + "/verify/"
	if err := c.do(ctx, sess, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostBill adds a charge to a tenant.
func (c *Client) PostBill(ctx context.Context, sess *auth.Session, in service.PostBillInput) (*models.Bill, error) {
	var bill models.Bill
	if err := c.do(ctx, sess, http.MethodPost, "/api/bills/", in, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// Notifications lists the session user's notifications.
func (c *Client) Notifications(ctx context.Context, sess *auth.Session, unreadOnly bool) ([]models.Notification, error) {
	path := "/api/notifications/"
	if unreadOnly {
		path += "?unread=true"
	}
	var notes []models.Notification
	err := c.do(ctx, sess, http.MethodGet, path, nil, &notes)
	return notes, err
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, sess *auth.Session, id string) error {
	return c.do(ctx, sess, http.MethodPost, "/api/notifications/"+url.PathEscape(id)+"/read/", nil, nil)
}

// Statement fetches a tenant's ledger and reduces it locally.
// An empty tenantID means the session's own tenancy.
func (c *Client) Statement(ctx context.Context, sess *auth.Session, tenantID string) (*service.TenantStatement, error) {
	if tenantID == "" && sess != nil {
		tenantID = sess.TenantID
	}
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrValidation)
	}

	tenant, err := c.Tenant(ctx, sess, tenantID)
	if err != nil {
		return nil, err
	}
	bills, err := c.Bills(ctx, sess, tenantID)
	if err != nil {
		return nil, err
	}
	payments, err := c.Payments(ctx, sess, tenantID)
	if err != nil {
		return nil, err
	}

	st := ledger.Summarize(tenant, bills, payments)
	return &service.TenantStatement{
		Tenant:    tenant,
		Statement: st,
		Display:   money.Format(st.Outstanding),
		Bills:     bills,
		Payments:  payments,
	}, nil
}

func withTenant(path, tenantID string) string {
	if tenantID == "" {
		return path
	}
	return path + "?" + url.Values{"tenant": {tenantID}}.Encode()
}

// do sends an authenticated request.
func (c *Client) do(ctx context.Context, sess *auth.Session, method, path string, body, out any) error {
	if !sess.Valid(c.now()) {
		return ErrSessionExpired
	}
	return c.send(ctx, sess.BearerToken(), method, path, body, out)
}

func (c *Client) send(ctx context.Context, authorization, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string               `json:"error"`
		Details []service.FieldError `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
