// Package api is the HTTP client for the attendance authority. It speaks the
// four contracts the core consumes: token status, redeem, history and
// register/bind.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rohanhumai/qr-attendance-client/config"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// Client attaches the bearer credential and the device fingerprint header to
// every identity-establishing request.
type Client struct {
	base       string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	fingerprint string
}

func New(cfg config.Client) *Client {
	return &Client{
		base:       strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// SetCredential installs the bearer token used for authenticated calls. An
// empty token clears it.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SetFingerprint installs the device fingerprint sent with every request.
func (c *Client) SetFingerprint(fp string) {
	c.mu.Lock()
	c.fingerprint = fp
	c.mu.Unlock()
}

// TokenStatus fetches the authoritative cooldown state.
func (c *Client) TokenStatus(ctx context.Context) (models.TokenStatus, error) {
	var status models.TokenStatus
	if err := c.authExpiredLocally(); err != nil {
		return status, err
	}
	err := c.do(ctx, http.MethodGet, "/student/token-status", nil, &status)
	return status, err
}

// MarkAttendance redeems a session code. On failure the returned error is a
// *models.Failure classified from the authority's response.
func (c *Client) MarkAttendance(ctx context.Context, sessionCode string) (models.AttendanceRecord, error) {
	var resp models.MarkResponse
	if err := c.authExpiredLocally(); err != nil {
		return models.AttendanceRecord{}, err
	}
	err := c.do(ctx, http.MethodPost, "/attendance/mark", models.MarkRequest{SessionCode: sessionCode}, &resp)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return resp.Attendance, nil
}

// MyAttendance fetches the identity's redemption history, newest first.
func (c *Client) MyAttendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	var resp models.HistoryResponse
	if err := c.authExpiredLocally(); err != nil {
		return nil, err
	}
	if err := c.do(ctx, http.MethodGet, "/attendance/my-attendance", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Attendance, nil
}

// Register binds the profile to the presented device fingerprint and returns
// the issued credential.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var resp models.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/auth/student/register", req, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	token, fingerprint := c.token, c.fingerprint
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if fingerprint != "" {
		req.Header.Set("X-Device-Fingerprint", fingerprint)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &models.Failure{Kind: models.KindTransient, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return failureFromResponse(res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return &models.Failure{Kind: models.KindTransient, Message: "decode response: " + err.Error()}
		}
	}
	return nil
}
