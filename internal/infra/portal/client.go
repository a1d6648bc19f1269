// Package portal provides a client for the upstream portal API: the
// login endpoint and the website (tenant) data endpoint.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/resilience"
	"github.com/portalfin/dashboard-bff-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("portal")

const (
	loginPath   = "api-login.php"
	websitePath = "api-test.php"

	defaultLoginError = "Wrong email or password."
)

// Client wraps HTTP calls to the portal API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      port.CredentialStore
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a portal client. baseURL must not end with a slash.
func NewClient(httpClient *http.Client, baseURL string, creds port.CredentialStore, cb *gobreaker.CircuitBreaker, bulkhead *resilience.Bulkhead, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		cb:         cb,
		bulkhead:   bulkhead,
		cfg:        cfg,
		logger:     logger,
	}
}

// doPost executes a JSON POST against the portal API and returns the
// raw body together with the HTTP status.
func (c *Client) doPost(ctx context.Context, path, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("portal: failed to create request",
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("portal: request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("portal: failed to read response body",
			zap.String("path", path),
			zap.Error(err),
		)
		return resp.StatusCode, nil, err
	}

	c.logger.Debug("portal: request done",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return resp.StatusCode, respBody, nil
}

type loginResponse struct {
	Token   string `json:"token"`
	Success string `json:"success"`
	Error   string `json:"error"`
}

// Login exchanges dashboard credentials for an upstream bearer token.
// Implements port.Authenticator.
//
// The upstream reports failure either with a non-2xx status or with a
// 200 carrying success=="false" (sometimes with trailing whitespace).
// Both map to ErrUnauthorized with the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Portal.Login")
	defer span.End()

	var token string

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			status, body, err := c.doPost(ctx, loginPath, "", map[string]string{
				"email":    email,
				"password": password,
			})
			if err != nil {
				return err
			}

			var lr loginResponse
			if err := json.Unmarshal(body, &lr); err != nil && status >= 200 && status < 300 {
				return resilience.Permanent(&domain.ErrDecode{Endpoint: loginPath, Err: err})
			}

			if status < 200 || status >= 300 || strings.TrimSpace(lr.Success) == "false" {
				msg := lr.Error
				if msg == "" {
					msg = defaultLoginError
				}
				c.logger.Warn("portal: login rejected",
					zap.Int("status", status),
					zap.String("message", msg),
				)
				// Retrying a rejected login cannot succeed.
				return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
			}

			token = lr.Token
			return nil
		})
	})

	if err != nil {
		return "", c.mapError(loginPath, err)
	}

	return token, nil
}

// FetchWebsite loads the active website and the switcher list.
// Implements port.TenantFetcher. On success the website's display name
// is written through to the credential store so the dashboard can paint
// it before the next load completes.
func (c *Client) FetchWebsite(ctx context.Context, token string) (*domain.Website, []domain.WebsiteRef, error) {
	ctx, span := tracer.Start(ctx, "Portal.FetchWebsite")
	defer span.End()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer c.bulkhead.Release()

	var (
		site *domain.Website
		refs []domain.WebsiteRef
	)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			status, body, err := c.doPost(ctx, websitePath, token, map[string]bool{
				"getWebsite": true,
			})
			if err != nil {
				return err
			}

			if status < 200 || status >= 300 {
				c.logger.Warn("portal: website fetch failed",
					zap.Int("status", status),
				)
				upErr := &domain.ErrUpstream{Endpoint: websitePath, Status: status}
				if status >= 400 && status < 500 {
					// Client errors (expired token, bad request) won't
					// heal on retry.
					return resilience.Permanent(upErr)
				}
				return upErr
			}

			var payload websitePayload
			if err := json.Unmarshal(body, &payload); err != nil {
				return resilience.Permanent(&domain.ErrDecode{Endpoint: websitePath, Err: err})
			}

			site, refs, err = buildWebsite(&payload)
			if err != nil {
				return resilience.Permanent(&domain.ErrDecode{Endpoint: websitePath, Err: err})
			}
			return nil
		})
	})

	if err != nil {
		return nil, nil, c.mapError(websitePath, err)
	}

	span.SetAttributes(
		attribute.String("website.id", site.ID),
		attribute.Int("website.customers", len(site.Customers)),
	)

	if err := c.creds.SetWebsiteName(site.Name); err != nil {
		c.logger.Warn("portal: failed to persist website name", zap.Error(err))
	}

	return site, refs, nil
}

// mapError normalizes breaker, timeout and transport errors into domain
// errors. Domain errors produced inside the retry loop pass through.
func (c *Client) mapError(endpoint string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "portal"}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: endpoint}
	}

	var (
		unauthorized *domain.ErrUnauthorized
		upstream     *domain.ErrUpstream
		decode       *domain.ErrDecode
	)
	if errors.As(err, &unauthorized) || errors.As(err, &upstream) || errors.As(err, &decode) {
		return err
	}

	return &domain.ErrUpstream{Endpoint: endpoint, Err: err}
}
