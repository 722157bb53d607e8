package kite

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:     "api_key",
		APISecret:  "api_secret",
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestChecksum(t *testing.T) {
	got := Checksum("api_key", "request_token", "api_secret")
	assert.Equal(t, "ff6a6d3d60c9d974df906ba6f787ac38300cfa68b41801b486ea1007e52e8942", got)
}

func TestLoginURL(t *testing.T) {
	c := New(Config{APIKey: "k", APISecret: "s"})

	raw, err := c.LoginURL("abc.def")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "kite.zerodha.com", u.Host)
	assert.Equal(t, "/connect/login", u.Path)
	assert.Equal(t, "3", u.Query().Get("v"))
	assert.Equal(t, "k", u.Query().Get("api_key"))
	assert.Equal(t, "state=abc.def", u.Query().Get("redirect_params"))
}

func TestLoginURL_NoState(t *testing.T) {
	c := New(Config{APIKey: "k", LoginURL: "http://login.local/connect"})

	raw, err := c.LoginURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://login.local/connect?api_key=k&v=3", raw)
}

func TestLoginURL_MissingKey(t *testing.T) {
	_, err := New(Config{}).LoginURL("x")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestGenerateSession_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/session/token", r.URL.Path)
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "api_key", r.PostForm.Get("api_key"))
		assert.Equal(t, "request_token", r.PostForm.Get("request_token"))
		assert.Equal(t, Checksum("api_key", "request_token", "api_secret"), r.PostForm.Get("checksum"))

		_, _ = io.WriteString(w, `{"status":"success","data":{"user_id":"AB1234","access_token":"acc-1","public_token":"pub"}}`)
	})

	s, err := c.GenerateSession(context.Background(), "request_token")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", s.AccessToken)
	assert.Equal(t, "AB1234", s.UserID)
}

func TestGenerateSession_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"status":"error","message":"Token is invalid or has expired.","error_type":"TokenException"}`)
	})

	_, err := c.GenerateSession(context.Background(), "stale")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	assert.Equal(t, "Token is invalid or has expired.", apiErr.Message)
	assert.True(t, IsTokenError(err))
}

func TestGenerateSession_EmptyAccessToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":{"user_id":"AB1234"}}`)
	})

	_, err := c.GenerateSession(context.Background(), "rt")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, DataException, apiErr.ErrorType)
}

func TestGenerateSession_MissingCredentials(t *testing.T) {
	c := New(Config{APIKey: "k"})
	_, err := c.GenerateSession(context.Background(), "rt")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestGenerateSession_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GenerateSession(ctx, "rt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProfile_AuthorizationHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/profile", r.URL.Path)
		assert.Equal(t, "token api_key:acc-1", r.Header.Get("Authorization"))
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))
		_, _ = io.WriteString(w, `{"status":"success","data":{"user_id":"AB1234","user_name":"Test User","email":"t@example.com","exchanges":["NSE","BSE"]}}`)
	})

	p, err := c.Profile(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "AB1234", p.UserID)
	assert.Equal(t, "Test User", p.UserName)
	assert.Equal(t, []string{"NSE", "BSE"}, p.Exchanges)
}

func TestHoldings_MissingFieldsAreZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio/holdings", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","data":[
			{"tradingsymbol":"INFY","quantity":10,"average_price":1400.5,"last_price":1500},
			{"tradingsymbol":"TCS"}
		]}`)
	})

	h, err := c.Holdings(context.Background(), "acc")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, 10.0, h[0].Quantity)
	assert.Equal(t, 1400.5, h[0].AveragePrice)
	assert.Equal(t, 0.0, h[1].Quantity)
	assert.Equal(t, 0.0, h[1].LastPrice)
}

func TestHoldings_NullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":null}`)
	})

	h, err := c.Holdings(context.Background(), "acc")
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestPositions_NetAndDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio/positions", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","data":{"net":[{"tradingsymbol":"NIFTY","pnl":-120.5}]}}`)
	})

	p, err := c.Positions(context.Background(), "acc")
	require.NoError(t, err)
	require.Len(t, p.Net, 1)
	assert.Equal(t, -120.5, p.Net[0].PnL)
	assert.NotNil(t, p.Day)
	assert.Empty(t, p.Day)
}

func TestGet_TokenException(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`)
	})

	_, err := c.Holdings(context.Background(), "revoked")
	assert.True(t, IsTokenError(err))
}

func TestGet_ServerErrorWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := c.Profile(context.Background(), "acc")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	assert.Equal(t, DataException, apiErr.ErrorType)
	assert.False(t, IsTokenError(err))
}

func TestGet_ErrorWithoutType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"error"}`)
	})

	_, err := c.Profile(context.Background(), "acc")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, GeneralException, apiErr.ErrorType)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
}

func TestGet_MissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success"}`)
	})

	_, err := c.Profile(context.Background(), "acc")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, DataException, apiErr.ErrorType)
}

func TestGet_NullObjectData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":null}`)
	})

	tests := []struct {
		name string
		call func() error
	}{
		{"profile", func() error { _, err := c.Profile(context.Background(), "acc"); return err }},
		{"positions", func() error { _, err := c.Positions(context.Background(), "acc"); return err }},
		{"session", func() error { _, err := c.GenerateSession(context.Background(), "rt"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			require.True(t, errors.As(tt.call(), &apiErr))
			assert.Equal(t, DataException, apiErr.ErrorType)
			assert.False(t, IsTokenError(apiErr))
		})
	}
}

func TestGet_UnexpectedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":"not-a-list"}`)
	})

	_, err := c.Holdings(context.Background(), "acc")
	require.Error(t, err)
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{HTTPStatus: 403, ErrorType: TokenException, Message: "expired"}
	assert.Equal(t, "kite: TokenException (http 403): expired", err.Error())
	assert.False(t, IsTokenError(errors.New("plain")))
}
