// Package identity talks to the hosted auth provider (a Supabase/GoTrue-style
// API). Account creation, password verification and token issuance all live
// on the provider side; this package only proxies them.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		http:       &http.Client{},
	}
}

// AuthUser is the provider's account record, reduced to what we use.
type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is an issued access credential plus its owner.
type Session struct {
	AccessToken string   `json:"access_token"`
	User        AuthUser `json:"user"`
}

// APIError carries a provider-reported failure (e.g. duplicate email,
// invalid credentials) with the provider's own message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Message)
}

// AdminCreateUser creates a confirmed account using the service credential.
func (c *Client) AdminCreateUser(ctx context.Context, email, password, name string) (*AuthUser, error) {
	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{"name": name},
	}

	var user AuthUser
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceKey, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword exchanges credentials for a session token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser resolves an access token to its account, rejecting invalid or
// expired tokens on the provider side.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	var user AuthUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify implements Verifier by revalidating the token against the provider
// on every call. No caching.
func (c *Client) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	user, err := c.GetUser(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode identity response: %w", err)
		}
	}
	return nil
}

// readErrorMessage pulls a human-readable message out of the provider's
// error body, which uses different keys depending on the endpoint.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return "request rejected"
	}

	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "request rejected"
	}

	switch {
	case body.Msg != "":
		return body.Msg
	case body.Message != "":
		return body.Message
	case body.ErrorDescription != "":
		return body.ErrorDescription
	}
	return "request rejected"
}
