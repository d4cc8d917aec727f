package driver

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const pollInterval = 250 * time.Millisecond

// RemoteRunner opens a WebDriver session on a hosted grid
type RemoteRunner struct {
	Host         models.Host
	Browser      models.Browser
	Endpoint     string
	Capabilities models.Capabilities
	Logger       *zap.Logger
}

// Start opens the remote session and maximizes its window.
// The endpoint carries credentials, so it is neither logged nor echoed in errors.
func (r *RemoteRunner) Start(ctx context.Context) (Session, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	secrets := endpointSecrets(r.Endpoint)
	fail := func(stage string, err error) error {
		return launchError(r.Host, r.Browser, stage, err, secrets...)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail("context", err)
	}

	logger.Info("opening remote session", zap.String("host", string(r.Host)), zap.Any("capabilities", r.Capabilities))

	wd, err := selenium.NewRemote(selenium.Capabilities(r.Capabilities), r.Endpoint)
	if err != nil {
		return nil, fail("new session", err)
	}

	sess := &webDriverSession{
		info: models.SessionInfo{
			ID:        wd.SessionID(),
			Host:      r.Host,
			Browser:   r.Browser,
			StartedAt: time.Now(),
		},
		wd:     wd,
		logger: logger,
	}

	if err := sess.Maximize(); err != nil {
		_ = sess.Close()
		return nil, fail("maximize window", err)
	}

	logger.Info("session started", zap.String("session_id", sess.info.ID), zap.String("host", string(r.Host)))
	return sess, nil
}

func endpointSecrets(endpoint string) []string {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return nil
	}
	secrets := []string{u.User.String()}
	if pass, ok := u.User.Password(); ok {
		secrets = append(secrets, pass)
	}
	return secrets
}

type webDriverSession struct {
	info   models.SessionInfo
	wd     selenium.WebDriver
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

func (s *webDriverSession) Info() models.SessionInfo { return s.info }

func (s *webDriverSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *webDriverSession) Navigate(url string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// poll re-runs match until it reports true or the budget runs out
func (s *webDriverSession) poll(loc models.Locator, timeout time.Duration, match func(selenium.WebElement) (bool, error)) (selenium.WebElement, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	timeout = orDefault(timeout)

	var found selenium.WebElement
	err := s.wd.WaitWithTimeoutAndInterval(func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(string(loc.By), loc.Value)
		if err != nil {
			return false, nil
		}
		ok, err := match(el)
		if err != nil || !ok {
			return false, nil
		}
		found = el
		return true, nil
	}, timeout, pollInterval)
	if err != nil {
		return nil, notFound(loc, timeout, err)
	}
	return found, nil
}

func (s *webDriverSession) Find(loc models.Locator, timeout time.Duration) (Element, error) {
	el, err := s.poll(loc, timeout, func(selenium.WebElement) (bool, error) { return true, nil })
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (s *webDriverSession) IsDisplayed(loc models.Locator, timeout time.Duration) (bool, error) {
	if _, err := s.poll(loc, timeout, selenium.WebElement.IsDisplayed); err != nil {
		return false, err
	}
	return true, nil
}

func (s *webDriverSession) ExecuteScript(script string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	_, err := s.wd.ExecuteScript(script, nil)
	return err
}

func (s *webDriverSession) Screenshot() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	return s.wd.Screenshot()
}

func (s *webDriverSession) Maximize() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	return s.wd.MaximizeWindow("")
}

func (s *webDriverSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.wd.Quit(); err != nil {
		return fmt.Errorf("failed to quit remote session %s: %w", s.info.ID, err)
	}
	s.logger.Info("session closed", zap.String("session_id", s.info.ID))
	return nil
}
