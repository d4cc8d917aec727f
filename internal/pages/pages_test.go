package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shehryarbajwa/e2e-harness/internal/driver/drivertest"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const baseURL = "http://example.test/"

func TestVisitJoinsBaseURL(t *testing.T) {
	sess := drivertest.New("s-1", models.HostLocal)
	p := NewBasePage(sess, baseURL, nil)

	require.NoError(t, p.Visit("/login"))
	require.NoError(t, p.Visit("secure"))
	assert.Equal(t, []string{"http://example.test/login", "http://example.test/secure"}, sess.Visited)
}

func TestTypeClearsFirst(t *testing.T) {
	sess := drivertest.New("s-1", models.HostLocal)
	sess.Show(usernameInput)
	sess.Typed[usernameInput.String()] = "stale"
	p := NewBasePage(sess, baseURL, nil)

	require.NoError(t, p.Type(usernameInput, "tomsmith"))
	assert.Equal(t, "tomsmith", sess.Typed[usernameInput.String()])
}

func TestIsDisplayedLogsAndReturnsFalse(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sess := drivertest.New("s-1", models.HostLocal)
	p := NewBasePage(sess, baseURL, zap.New(core))

	assert.False(t, p.IsDisplayed(successMessage))
	assert.Equal(t, 1, logs.FilterMessage("element is not displayed").Len())

	sess.Hide(successMessage)
	assert.False(t, p.IsDisplayed(successMessage), "present but hidden")

	sess.Show(successMessage)
	assert.True(t, p.IsDisplayed(successMessage))
}

func TestClickMissingElement(t *testing.T) {
	sess := drivertest.New("s-1", models.HostLocal)
	p := NewBasePage(sess, baseURL, nil)

	assert.Error(t, p.Click(submitButton))
	assert.Empty(t, sess.Clicks)
}

func loginSession() *drivertest.Session {
	sess := drivertest.New("s-1", models.HostLocal)
	sess.Show(loginForm)
	sess.Show(usernameInput)
	sess.Show(passwordInput)
	sess.Show(submitButton)
	sess.OnClick[submitButton.String()] = func(s *drivertest.Session) {
		if s.Typed[usernameInput.String()] == "tomsmith" && s.Typed[passwordInput.String()] == "SuperSecretPassword!" {
			s.Show(successMessage)
		} else {
			s.Show(failureMessage)
		}
	}
	return sess
}

func TestLoginValid(t *testing.T) {
	sess := loginSession()

	login, err := NewLoginPage(sess, baseURL, nil)
	require.NoError(t, err)
	require.NoError(t, login.With("tomsmith", "SuperSecretPassword!"))

	assert.True(t, login.SuccessMessagePresent())
	assert.False(t, login.FailureMessagePresent())
	assert.Equal(t, []string{"http://example.test/login"}, sess.Visited)
}

func TestLoginInvalid(t *testing.T) {
	login, err := NewLoginPage(loginSession(), baseURL, nil)
	require.NoError(t, err)
	require.NoError(t, login.With("tomsmith", "badpassword"))

	assert.True(t, login.FailureMessagePresent())
	assert.False(t, login.SuccessMessagePresent())
}

func TestLoginFormMissing(t *testing.T) {
	_, err := NewLoginPage(drivertest.New("s-1", models.HostLocal), baseURL, nil)
	assert.Error(t, err)
}

func TestDynamicLoading(t *testing.T) {
	sess := drivertest.New("s-1", models.HostLocal)
	sess.Show(startButton)
	sess.Hide(helloWorldText)
	sess.OnClick[startButton.String()] = func(s *drivertest.Session) {
		s.Show(helloWorldText)
	}

	page, err := NewDynamicLoadingPage(sess, baseURL, nil)
	require.NoError(t, err)
	assert.False(t, page.IsHelloWorldTextPresent())

	require.NoError(t, page.ClickStartButton())
	assert.True(t, page.IsHelloWorldTextPresent())
	assert.False(t, page.IsLoadingBarPresent())
	assert.Equal(t, []string{"http://example.test/dynamic_loading/1"}, sess.Visited)
}
