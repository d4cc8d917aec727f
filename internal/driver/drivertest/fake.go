// Package drivertest provides an in-memory driver.Session for tests.
package drivertest

import (
	"sync"
	"time"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// Session records every call made against it. Elements listed in Visible
// are found and displayed, elements in Hidden are found but not displayed,
// anything else is not found.
type Session struct {
	SessionInfo models.SessionInfo

	Visible map[string]bool
	Hidden  map[string]bool

	ScreenshotData []byte
	ScreenshotErr  error
	ScriptErr      error
	CloseErr       error
	// OnClick runs after a click on the given locator string
	OnClick map[string]func(*Session)

	mu          sync.Mutex
	closed      bool
	Closes      int
	Scripts     []string
	Visited     []string
	Clicks      []string
	Typed       map[string]string
	Maximized   int
	Screenshots int
}

var _ driver.Session = (*Session)(nil)

func New(id string, host models.Host) *Session {
	return &Session{
		SessionInfo: models.SessionInfo{
			ID:        id,
			Host:      host,
			Browser:   models.BrowserChrome,
			StartedAt: time.Now(),
		},
		Visible:        map[string]bool{},
		Hidden:         map[string]bool{},
		Typed:          map[string]string{},
		OnClick:        map[string]func(*Session){},
		ScreenshotData: []byte("\x89PNG fake"),
	}
}

// Show marks loc as present and visible
func (s *Session) Show(loc models.Locator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Hidden, loc.String())
	s.Visible[loc.String()] = true
}

// Hide marks loc as present but hidden
func (s *Session) Hide(loc models.Locator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Visible, loc.String())
	s.Hidden[loc.String()] = true
}

func (s *Session) Info() models.SessionInfo { return s.SessionInfo }

func (s *Session) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return driver.ErrSessionClosed
	}
	s.Visited = append(s.Visited, url)
	return nil
}

func (s *Session) Find(loc models.Locator, _ time.Duration) (driver.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, driver.ErrSessionClosed
	}
	key := loc.String()
	if !s.Visible[key] && !s.Hidden[key] {
		return nil, driver.ErrElementNotFound
	}
	return &element{session: s, key: key}, nil
}

func (s *Session) IsDisplayed(loc models.Locator, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, driver.ErrSessionClosed
	}
	if !s.Visible[loc.String()] {
		return false, driver.ErrElementNotFound
	}
	return true, nil
}

func (s *Session) ExecuteScript(script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return driver.ErrSessionClosed
	}
	s.Scripts = append(s.Scripts, script)
	return s.ScriptErr
}

func (s *Session) Screenshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, driver.ErrSessionClosed
	}
	s.Screenshots++
	if s.ScreenshotErr != nil {
		return nil, s.ScreenshotErr
	}
	return s.ScreenshotData, nil
}

func (s *Session) Maximize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Maximized++
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return driver.ErrSessionClosed
	}
	s.closed = true
	s.Closes++
	return s.CloseErr
}

type element struct {
	session *Session
	key     string
}

func (e *element) Click() error {
	e.session.mu.Lock()
	e.session.Clicks = append(e.session.Clicks, e.key)
	hook := e.session.OnClick[e.key]
	e.session.mu.Unlock()
	if hook != nil {
		hook(e.session)
	}
	return nil
}

func (e *element) Clear() error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	delete(e.session.Typed, e.key)
	return nil
}

func (e *element) SendKeys(text string) error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	e.session.Typed[e.key] += text
	return nil
}
