package driver

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/capability"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// LocalRunner launches a browser on this machine through playwright
type LocalRunner struct {
	Options capability.Options
	// SkipInstall assumes the driver and browser binaries are already present
	SkipInstall bool
	Logger      *zap.Logger
}

func (r *LocalRunner) engine() string {
	if r.Options.Browser() == models.BrowserFirefox {
		return "firefox"
	}
	return "chromium"
}

// Start resolves the driver, launches the browser and opens one page.
// Firefox windows are maximized after launch since they ignore launch-time
// sizing when headless.
func (r *LocalRunner) Start(ctx context.Context) (Session, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	browserName := r.Options.Browser()
	fail := func(stage string, err error) error {
		return launchError(models.HostLocal, browserName, stage, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail("context", err)
	}

	logger.Info(">> Browser", zap.String("browser", string(browserName)), zap.Any("capabilities", r.Options.Capabilities()))
	if r.Options.Headless() {
		logger.Info("headless mode enabled", zap.String("browser", string(browserName)))
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{r.engine()},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if !r.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fail("install driver", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fail("start driver", err)
	}

	browserType := pw.Chromium
	if browserName == models.BrowserFirefox {
		browserType = pw.Firefox
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.Options.Headless()),
		Args:     r.Options.LaunchArgs(),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fail("launch browser", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if browserName == models.BrowserChrome {
		// window size from start-maximized drives the viewport
		contextOpts.NoViewport = playwright.Bool(true)
	}
	browserCtx, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fail("create context", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fail("open page", err)
	}
	page.SetDefaultTimeout(float64(DefaultWait.Milliseconds()))

	sess := &pageSession{
		info: models.SessionInfo{
			ID:        uuid.New().String(),
			Host:      models.HostLocal,
			Browser:   browserName,
			StartedAt: time.Now(),
		},
		pw:      pw,
		browser: browser,
		page:    page,
		logger:  logger,
	}

	if browserName == models.BrowserFirefox {
		if err := sess.Maximize(); err != nil {
			_ = sess.Close()
			return nil, fail("maximize window", err)
		}
	}

	logger.Info("session started", zap.String("session_id", sess.info.ID), zap.String("host", string(models.HostLocal)))
	return sess, nil
}
