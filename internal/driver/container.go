package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/browser"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// ContainerPool hands out browser containers
type ContainerPool interface {
	LaunchBrowser(ctx context.Context, sessionID string) (*browser.BrowserInstance, error)
	StopBrowser(ctx context.Context, containerID string) error
	IsHealthy(ctx context.Context, containerID string) bool
}

// ContainerRunner runs chrome inside a throwaway docker container and drives
// it over CDP. Closing the session stops and removes the container.
type ContainerRunner struct {
	Pool        ContainerPool
	SkipInstall bool
	Logger      *zap.Logger
}

func (r *ContainerRunner) Start(ctx context.Context) (Session, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fail := func(stage string, err error) error {
		return launchError(models.HostContainer, models.BrowserChrome, stage, err)
	}
	if r.Pool == nil {
		return nil, fail("container pool", fmt.Errorf("no container pool configured"))
	}

	sessionID := uuid.New().String()
	instance, err := r.Pool.LaunchBrowser(ctx, sessionID)
	if err != nil {
		return nil, fail("launch container", err)
	}

	release := func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Pool.StopBrowser(stopCtx, instance.ContainerID); err != nil {
			return fmt.Errorf("stop container %s: %w", instance.ContainerID, err)
		}
		return nil
	}
	cleanup := func() {
		if err := release(); err != nil {
			logger.Warn("failed to release container", zap.Error(err))
		}
	}

	// a container that died while chrome booted never answers CDP
	if !r.Pool.IsHealthy(ctx, instance.ContainerID) {
		cleanup()
		return nil, fail("container health", fmt.Errorf("container %s is not running", shortID(instance.ContainerID)))
	}

	// the browser lives in the container, only the driver is needed here
	runOpts := &playwright.RunOptions{
		SkipInstallBrowsers: true,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}
	if !r.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			cleanup()
			return nil, fail("install driver", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		cleanup()
		return nil, fail("start driver", err)
	}

	remote, err := pw.Chromium.ConnectOverCDP(instance.ConnectURL)
	if err != nil {
		_ = pw.Stop()
		cleanup()
		return nil, fail("connect over cdp", err)
	}

	browserCtx, err := remote.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: maximizedWidth, Height: maximizedHeight},
	})
	if err != nil {
		_ = remote.Close()
		_ = pw.Stop()
		cleanup()
		return nil, fail("create context", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = remote.Close()
		_ = pw.Stop()
		cleanup()
		return nil, fail("open page", err)
	}
	page.SetDefaultTimeout(float64(DefaultWait.Milliseconds()))

	sess := &pageSession{
		info: models.SessionInfo{
			ID:          sessionID,
			Host:        models.HostContainer,
			Browser:     models.BrowserChrome,
			StartedAt:   time.Now(),
			ContainerID: instance.ContainerID,
		},
		pw:      pw,
		browser: remote,
		page:    page,
		release: release,
		logger:  logger,
	}

	logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("host", string(models.HostContainer)),
		zap.String("container_id", shortID(instance.ContainerID)))
	return sess, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
