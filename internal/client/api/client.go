// Package api is the REST client for the marketplace server. It keeps the
// token pair issued at login and transparently refreshes an expired access
// token once per request before giving up.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
)

type Client struct {
	baseURL      string
	hc           *http.Client
	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

// SetTokens installs a token pair restored from local storage.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

// Tokens returns the current token pair for persisting.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	authed      bool
}

// do performs one HTTP round trip. On a 401 carrying the fixed
// "token expired" message it refreshes the access token and retries the
// original request exactly once.
func (c *Client) do(ctx context.Context, req request, out any) error {
	apiErr, err := c.roundTrip(ctx, req, out)
	if err != nil {
		return err
	}
	if apiErr == nil {
		return nil
	}

	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != common.ErrTokenExpired.Error() {
		return apiErr
	}

	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return apiErr
	}

	if err := c.refresh(ctx, refreshToken); err != nil {
		return err
	}

	// Token refreshed, replay the original request with the new one.
	apiErr, err = c.roundTrip(ctx, req, out)
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) (*APIError, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bytes.NewReader(req.body))
	if err != nil {
		return nil, err
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error}, nil
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("unexpected response body: %w", err)
		}
	}
	return nil, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return err
	}

	var res struct {
		AccessToken string `json:"accessToken"`
	}
	apiErr, err := c.roundTrip(ctx, request{
		method:      http.MethodPost,
		path:        "/refresh",
		body:        body,
		contentType: "application/json",
	}, &res)
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}

	c.mu.Lock()
	c.accessToken = res.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, authed bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		authed:      authed,
	}, out)
}

// Register creates an account and returns the new user id.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	err := c.postJSON(ctx, "/register", map[string]string{
		"email":     email,
		"password":  password,
		"firstName": firstName,
		"lastName":  lastName,
	}, &res, false)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// Login authenticates and installs the returned token pair on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.postJSON(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res, false)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accessToken = res.AccessToken
	c.refreshToken = res.RefreshToken
	c.mu.Unlock()
	return &res, nil
}

// Logout revokes the refresh token server-side and drops both tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	err := c.postJSON(ctx, "/logout", map[string]string{
		"refreshToken": refreshToken,
	}, nil, true)

	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.mu.Unlock()
	return err
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/me", authed: true}, &res)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// UpdateMe submits the full details mirror and returns the updated profile.
func (c *Client) UpdateMe(ctx context.Context, upd DetailsUpdate) (*User, error) {
	body, err := json.Marshal(upd)
	if err != nil {
		return nil, err
	}
	var res struct {
		User User `json:"user"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/me",
		body:        body,
		contentType: "application/json",
		authed:      true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// UploadPhoto sends image bytes as the multipart "photo" part and returns the
// stored paths.
func (c *Client) UploadPhoto(ctx context.Context, filename string, data []byte) (*PhotoResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res PhotoResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/me/photo",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		authed:      true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ChangePassword swaps the account password. The access token stays valid.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.postJSON(ctx, "/me/password", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, nil, true)
}

// ListProducts fetches one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) (*ProductPage, error) {
	var res ProductPage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/products?page=%d&pageSize=%d", page, pageSize),
		authed: true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListUsers returns every account. Requires the admin role.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var res struct {
		Users []User `json:"users"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/users", authed: true}, &res)
	if err != nil {
		return nil, err
	}
	return res.Users, nil
}
