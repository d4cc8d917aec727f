package demoapp

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(NewHandler(Options{LoadingDelay: 250 * time.Millisecond}, nil).SetupRoutes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestLoginPageHasForm(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.Get(srv.URL + "/login")
	require.NoError(t, err)
	html := body(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, `id="login"`)
	assert.Contains(t, html, `id="username"`)
	assert.Contains(t, html, `id="password"`)
	assert.Contains(t, html, `type="submit"`)
	assert.NotContains(t, html, `class="flash`)
}

func TestAuthenticateValid(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.PostForm(srv.URL+"/authenticate", url.Values{
		"username": {ValidUsername},
		"password": {ValidPassword},
	})
	require.NoError(t, err)
	html := body(t, resp)

	assert.Equal(t, "/secure", resp.Request.URL.Path)
	assert.Contains(t, html, `class="flash success"`)
	assert.Contains(t, html, "You logged into a secure area!")

	// the flash is shown once
	resp, err = client.Get(srv.URL + "/secure")
	require.NoError(t, err)
	assert.NotContains(t, body(t, resp), "flash success")
}

func TestAuthenticateInvalid(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.PostForm(srv.URL+"/authenticate", url.Values{
		"username": {ValidUsername},
		"password": {"badpassword"},
	})
	require.NoError(t, err)
	html := body(t, resp)

	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, html, `class="flash error"`)
	assert.Contains(t, html, "Your password is invalid!")
}

func TestSecureRequiresLogin(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.Get(srv.URL + "/secure")
	require.NoError(t, err)
	html := body(t, resp)

	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, html, "You must login to view the secure area!")
}

func TestLogout(t *testing.T) {
	srv, client := newServer(t)

	_, err := client.PostForm(srv.URL+"/authenticate", url.Values{"username": {ValidUsername}, "password": {ValidPassword}})
	require.NoError(t, err)

	resp, err := client.Get(srv.URL + "/logout")
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "You logged out of the secure area!")

	resp, err = client.Get(srv.URL + "/secure")
	require.NoError(t, err)
	body(t, resp)
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestDynamicLoadingPage(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.Get(srv.URL + "/dynamic_loading/1")
	require.NoError(t, err)
	html := body(t, resp)

	assert.Contains(t, html, "<button>Start</button>")
	assert.Contains(t, html, `id="loading"`)
	assert.Contains(t, html, `id="finish"`)
	assert.Contains(t, html, "Hello World!")
	assert.Contains(t, html, "250")
}

func TestAuthenticateIsRateLimited(t *testing.T) {
	srv, _ := newServer(t)
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	var limited bool
	for i := 0; i < defaultLoginBurst+1; i++ {
		resp, err := noRedirect.PostForm(srv.URL+"/authenticate", url.Values{"username": {"x"}})
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
	}
	assert.True(t, limited)
}

func TestForwardedForDoesNotResetTheLimit(t *testing.T) {
	srv, _ := newServer(t)
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	var limited bool
	for i := 0; i < defaultLoginBurst+1; i++ {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/authenticate", strings.NewReader("username=x"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))

		resp, err := noRedirect.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "a fresh X-Forwarded-For per request must not earn a fresh bucket")
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/authenticate", nil)
	r.RemoteAddr = "192.0.2.7:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "192.0.2.7", clientAddr(r))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientAddr(r))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, client := newServer(t)

	resp, err := client.Get(srv.URL + "/authenticate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
