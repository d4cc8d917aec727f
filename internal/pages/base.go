// Package pages holds page objects for the application under test. Each page
// hides its locators and exposes what a test can do or check on it.
package pages

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// BasePage carries the session and base URL every page needs
type BasePage struct {
	Session driver.Session
	BaseURL string
	Logger  *zap.Logger
	// Wait bounds element lookups; zero means driver.DefaultWait
	Wait time.Duration
}

func NewBasePage(sess driver.Session, baseURL string, logger *zap.Logger) BasePage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BasePage{Session: sess, BaseURL: strings.TrimRight(baseURL, "/"), Logger: logger}
}

func (p BasePage) wait() time.Duration {
	if p.Wait <= 0 {
		return driver.DefaultWait
	}
	return p.Wait
}

// Visit opens path relative to the base URL
func (p BasePage) Visit(path string) error {
	target := p.BaseURL + "/" + strings.TrimLeft(path, "/")
	p.Logger.Info("visiting", zap.String("url", target))
	return p.Session.Navigate(target)
}

func (p BasePage) Find(loc models.Locator) (driver.Element, error) {
	el, err := p.Session.Find(loc, p.wait())
	if err != nil {
		p.Logger.Warn("could not find element", zap.Stringer("locator", loc), zap.Error(err))
		return nil, err
	}
	return el, nil
}

func (p BasePage) Click(loc models.Locator) error {
	el, err := p.Find(loc)
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Type clears the field then types text into it
func (p BasePage) Type(loc models.Locator, text string) error {
	el, err := p.Find(loc)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := el.SendKeys(text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// IsDisplayed waits for loc to become visible. An element that never shows
// up is not an error here, only false.
func (p BasePage) IsDisplayed(loc models.Locator) bool {
	shown, err := p.Session.IsDisplayed(loc, p.wait())
	if err != nil {
		if errors.Is(err, driver.ErrElementNotFound) {
			p.Logger.Info("element is not displayed", zap.Stringer("locator", loc), zap.Duration("waited", p.wait()))
		} else {
			p.Logger.Error("visibility check failed", zap.Stringer("locator", loc), zap.Error(err))
		}
		return false
	}
	return shown
}
