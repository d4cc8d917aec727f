package driver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const (
	maximizedWidth  = 1920
	maximizedHeight = 1080
)

// pageSession drives a playwright page. It backs both the local runner and
// the container runner.
type pageSession struct {
	info    models.SessionInfo
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	release func() error
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Selector translates a locator into a playwright selector
func Selector(loc models.Locator) string {
	switch loc.By {
	case models.ByIDStrategy:
		return "id=" + loc.Value
	case models.ByXPathStrategy:
		return "xpath=" + loc.Value
	default:
		return "css=" + loc.Value
	}
}

func (s *pageSession) Info() models.SessionInfo { return s.info }

func (s *pageSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *pageSession) Navigate(url string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *pageSession) waitFor(loc models.Locator, timeout time.Duration, state *playwright.WaitForSelectorState) (playwright.Locator, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	timeout = orDefault(timeout)
	first := s.page.Locator(Selector(loc)).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, notFound(loc, timeout, err)
	}
	return first, nil
}

func (s *pageSession) Find(loc models.Locator, timeout time.Duration) (Element, error) {
	el, err := s.waitFor(loc, timeout, playwright.WaitForSelectorStateAttached)
	if err != nil {
		return nil, err
	}
	return pageElement{loc: el}, nil
}

func (s *pageSession) IsDisplayed(loc models.Locator, timeout time.Duration) (bool, error) {
	el, err := s.waitFor(loc, timeout, playwright.WaitForSelectorStateVisible)
	if err != nil {
		return false, err
	}
	return el.IsVisible()
}

func (s *pageSession) ExecuteScript(script string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	_, err := s.page.Evaluate(script)
	return err
}

func (s *pageSession) Screenshot() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

// Maximize sizes the viewport to a full HD screen; playwright pages have no
// window manager to ask.
func (s *pageSession) Maximize() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	return s.page.SetViewportSize(maximizedWidth, maximizedHeight)
}

func (s *pageSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	if s.release != nil {
		if err := s.release(); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("session closed", zap.String("session_id", s.info.ID))
	return errors.Join(errs...)
}

type pageElement struct {
	loc playwright.Locator
}

func (e pageElement) Click() error { return e.loc.Click() }
func (e pageElement) Clear() error { return e.loc.Clear() }

func (e pageElement) SendKeys(text string) error {
	return e.loc.PressSequentially(text)
}
