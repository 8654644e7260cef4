// Package firebase is an identity provider backed by the Firebase
// Identity Toolkit REST API.
package firebase

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
)

const (
	// BaseURL is the Identity Toolkit API base URL
	BaseURL = "https://identitytoolkit.googleapis.com"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the Identity Toolkit client
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Identity Toolkit API. It is shared by every visitor.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// AuthResponse is returned by signUp and signInWithPassword
type AuthResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// APIError is an Identity Toolkit error response
type APIError struct {
	StatusCode int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity toolkit error: %s (status %d)", e.Message, e.StatusCode)
}

// Reason is the error code part of the message, e.g. "WEAK_PASSWORD" out of
// "WEAK_PASSWORD : Password should be at least 6 characters".
func (e *APIError) Reason() string {
	reason, _, _ := strings.Cut(e.Message, ":")
	return strings.TrimSpace(reason)
}

// Detail is the human readable part of the message, or the reason when absent.
func (e *APIError) Detail() string {
	if _, detail, ok := strings.Cut(e.Message, ":"); ok {
		return strings.TrimSpace(detail)
	}
	return e.Message
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.doRequest(ctx, "accounts:signInWithPassword", passwordRequest{email, password, true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.doRequest(ctx, "accounts:signUp", passwordRequest{email, password, true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup returns the account an ID token belongs to
func (c *Client) Lookup(ctx context.Context, idToken string) (localID, email string, err error) {
	var out lookupResponse
	if err := c.doRequest(ctx, "accounts:lookup", lookupRequest{IDToken: idToken}, &out); err != nil {
		return "", "", err
	}
	if len(out.Users) == 0 {
		return "", "", &APIError{StatusCode: http.StatusBadRequest, Message: "USER_NOT_FOUND"}
	}
	return out.Users[0].LocalID, out.Users[0].Email, nil
}

func (c *Client) doRequest(ctx context.Context, method string, body interface{}, result interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error.Message == "" {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
