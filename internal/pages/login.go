package pages

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const LoginPath = "/login"

var (
	usernameInput  = models.ByID("username")
	passwordInput  = models.ByID("password")
	submitButton   = models.ByCSS("button[type='submit']")
	successMessage = models.ByCSS(".flash.success")
	failureMessage = models.ByCSS(".flash.error")
	loginForm      = models.ByID("login")
)

type LoginPage struct {
	BasePage
}

// NewLoginPage opens the login page and fails unless the form shows up
func NewLoginPage(sess driver.Session, baseURL string, logger *zap.Logger) (*LoginPage, error) {
	p := &LoginPage{BasePage: NewBasePage(sess, baseURL, logger)}
	if err := p.Visit(LoginPath); err != nil {
		return nil, err
	}
	if !p.IsDisplayed(loginForm) {
		return nil, fmt.Errorf("login form %s not displayed", loginForm)
	}
	return p, nil
}

// With fills in the credentials and submits the form
func (p *LoginPage) With(username, password string) error {
	if err := p.Type(usernameInput, username); err != nil {
		return err
	}
	if err := p.Type(passwordInput, password); err != nil {
		return err
	}
	return p.Click(submitButton)
}

func (p *LoginPage) SuccessMessagePresent() bool {
	return p.IsDisplayed(successMessage)
}

func (p *LoginPage) FailureMessagePresent() bool {
	return p.IsDisplayed(failureMessage)
}
