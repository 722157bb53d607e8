// Package kite is a minimal client for the Kite Connect v3 HTTP API. It
// covers the login redirect, the request-token exchange and the read-only
// portfolio endpoints.
package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/oauth2"
)

const (
	DefaultLoginURL = "https://kite.zerodha.com/connect/login"
	DefaultAPIURL   = "https://api.kite.trade"

	// APIVersion is sent on every request as X-Kite-Version.
	APIVersion = "3"

	maxBodySize = 4 << 20
)

// Config holds the application credentials and endpoints.
// Empty URLs fall back to the production defaults.
type Config struct {
	APIKey     string
	APISecret  string
	LoginURL   string
	APIURL     string
	HTTPClient *http.Client
}

// Client talks to the Kite Connect API. It holds no per-user state: the
// access token is passed to every data call.
type Client struct {
	apiKey     string
	apiSecret  string
	loginURL   string
	apiURL     string
	httpClient *http.Client
}

// New constructs a Client from cfg.
func New(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		loginURL:   cfg.LoginURL,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: cfg.HTTPClient,
	}
	if c.loginURL == "" {
		c.loginURL = DefaultLoginURL
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

// HasCredentials reports whether both the API key and secret are set.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

// LoginURL builds the URL the user is redirected to for authorization.
// A non-empty state is passed through redirect_params and comes back on
// the callback unchanged.
func (c *Client) LoginURL(state string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredentials
	}

	u, err := url.Parse(c.loginURL)
	if err != nil {
		return "", fmt.Errorf("parse login url: %w", err)
	}

	q := u.Query()
	q.Set("v", APIVersion)
	q.Set("api_key", c.apiKey)
	if state != "" {
		q.Set("redirect_params", url.Values{"state": {state}}.Encode())
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Checksum is the session checksum: hex(sha256(api_key + request_token + api_secret)).
func Checksum(apiKey, requestToken, apiSecret string) string {
	sum := sha256.Sum256([]byte(apiKey + requestToken + apiSecret))
	return hex.EncodeToString(sum[:])
}

// GenerateSession exchanges a request token for an access token.
func (c *Client) GenerateSession(ctx context.Context, requestToken string) (*Session, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", Checksum(c.apiKey, requestToken, c.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/session/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Kite-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	var s Session
	if err := decodeEnvelope(resp, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, &APIError{HTTPStatus: resp.StatusCode, ErrorType: DataException, Message: "empty access_token in session response"}
	}

	return &s, nil
}

// Profile fetches the user profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, accessToken, "/user/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Holdings fetches the long-term holdings. The result is never nil.
func (c *Client) Holdings(ctx context.Context, accessToken string) ([]Holding, error) {
	h := []Holding{}
	if err := c.get(ctx, accessToken, "/portfolio/holdings", &h); err != nil {
		return nil, err
	}
	if h == nil {
		h = []Holding{}
	}
	return h, nil
}

// Positions fetches net and day positions. Both slices are never nil.
func (c *Client) Positions(ctx context.Context, accessToken string) (*Positions, error) {
	var p Positions
	if err := c.get(ctx, accessToken, "/portfolio/positions", &p); err != nil {
		return nil, err
	}
	if p.Net == nil {
		p.Net = []Position{}
	}
	if p.Day == nil {
		p.Day = []Position{}
	}
	return &p, nil
}

// authorized returns an http.Client that signs requests with
// "Authorization: token api_key:access_token".
func (c *Client) authorized(accessToken string) *http.Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: c.apiKey + ":" + accessToken,
		TokenType:   "token",
	})

	return &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: base},
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
	}
}

func (c *Client) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Kite-Version", APIVersion)

	resp, err := c.authorized(accessToken).Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// decodeEnvelope unpacks {status, data, message, error_type}. On success the
// data member is decoded into out.
func decodeEnvelope(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return &APIError{
			HTTPStatus: resp.StatusCode,
			ErrorType:  DataException,
			Message:    fmt.Sprintf("invalid JSON response: %v", err),
		}
	}

	status := lookupString(doc, "$.status")
	if resp.StatusCode >= http.StatusBadRequest || status == "error" {
		apiErr := &APIError{
			HTTPStatus: resp.StatusCode,
			ErrorType:  lookupString(doc, "$.error_type"),
			Message:    lookupString(doc, "$.message"),
		}
		if apiErr.ErrorType == "" {
			apiErr.ErrorType = GeneralException
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	data, err := jsonpath.Get("$.data", doc)
	if err != nil {
		return &APIError{HTTPStatus: resp.StatusCode, ErrorType: DataException, Message: "response has no data"}
	}
	if data == nil {
		// an empty holdings list may come back as null; objects may not
		if _, ok := out.(*[]Holding); ok {
			return nil
		}
		return &APIError{HTTPStatus: resp.StatusCode, ErrorType: DataException, Message: "response data is null"}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			HTTPStatus: resp.StatusCode,
			ErrorType:  DataException,
			Message:    fmt.Sprintf("unexpected data shape: %v", err),
		}
	}
	return nil
}

// lookupString returns the string at path or "" when it is absent or not a string.
func lookupString(doc any, path string) string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
