// Package driver opens browser sessions and exposes them behind a small
// find/click/type surface that page objects are written against.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// DefaultWait is the element presence budget used when callers pass zero
const DefaultWait = 10 * time.Second

var (
	ErrElementNotFound = errors.New("element not found")
	ErrSessionClosed   = errors.New("browser session closed")
)

// Session is a live browser owned by exactly one test
type Session interface {
	Info() models.SessionInfo
	Navigate(url string) error
	Find(loc models.Locator, timeout time.Duration) (Element, error)
	IsDisplayed(loc models.Locator, timeout time.Duration) (bool, error)
	ExecuteScript(script string) error
	Screenshot() ([]byte, error)
	Maximize() error
	Close() error
}

// Element is a located page element
type Element interface {
	Click() error
	Clear() error
	SendKeys(text string) error
}

// Runner opens a session
type Runner interface {
	Start(ctx context.Context) (Session, error)
}

// LaunchError reports a session that could not be opened.
// No browser resources outlive it.
type LaunchError struct {
	Host    models.Host
	Browser models.Browser
	Stage   string
	Err     error

	secrets []string
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("failed to launch %s session on %s (%s)", e.Browser, e.Host, e.Stage)
	if e.Err != nil {
		msg += ": " + redact(e.Err.Error(), e.secrets...)
	}
	return msg
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func launchError(host models.Host, browser models.Browser, stage string, err error, secrets ...string) *LaunchError {
	return &LaunchError{Host: host, Browser: browser, Stage: stage, Err: err, secrets: secrets}
}

// IsLaunchError returns true if err came from a failed session start
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

func notFound(loc models.Locator, timeout time.Duration, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s after %s", ErrElementNotFound, loc, timeout)
	}
	return fmt.Errorf("%w: %s after %s: %v", ErrElementNotFound, loc, timeout, cause)
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultWait
	}
	return timeout
}

func redact(msg string, secrets ...string) string {
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, "****")
		}
	}
	return msg
}
