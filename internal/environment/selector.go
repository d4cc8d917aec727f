package environment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/e2e-harness/internal/capability"
	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/internal/metrics"
	"github.com/shehryarbajwa/e2e-harness/internal/ratelimit"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const (
	DefaultSessionsPerMinute = 30
	DefaultSessionBurst      = 5
	DefaultParallelRemote    = 5
)

// Selector opens sessions on targets, pacing and capping remote grids so a
// parallel run stays inside the account's concurrency allowance.
type Selector struct {
	Pool        driver.ContainerPool
	SkipInstall bool
	Metrics     *metrics.Collector
	Logger      *zap.Logger

	limiter *ratelimit.Limiter
	slots   *semaphore.Weighted
}

func NewSelector(logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		Logger:  logger,
		limiter: ratelimit.NewLimiter(DefaultSessionsPerMinute, DefaultSessionBurst),
		slots:   semaphore.NewWeighted(DefaultParallelRemote),
	}
}

// Runner builds the runner for target without starting anything
func (s *Selector) Runner(target Target, meta models.SessionMeta) (driver.Runner, error) {
	switch t := target.(type) {
	case Local:
		return &driver.LocalRunner{
			Options:     capability.Build(t.BrowserName, t.Headless),
			SkipInstall: s.SkipInstall,
			Logger:      s.Logger,
		}, nil

	case GridA:
		return s.remoteRunner(grid.VendorA, t.Host(), t.BrowserName, t.Creds, t.HubHost, t.TunnelID, meta)

	case GridB:
		return s.remoteRunner(grid.VendorB, t.Host(), t.BrowserName, t.Creds, t.HubHost, "", meta)

	case Container:
		if s.Pool == nil {
			return nil, fmt.Errorf("container host needs a docker pool")
		}
		return &driver.ContainerRunner{
			Pool:        s.Pool,
			SkipInstall: s.SkipInstall,
			Logger:      s.Logger,
		}, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnknownTarget, target)
}

func (s *Selector) remoteRunner(v grid.Vendor, host models.Host, browser models.Browser, creds grid.Credentials, hub, tunnelID string, meta models.SessionMeta) (driver.Runner, error) {
	meta.Browser = browser
	caps, err := grid.Payload(v, meta, tunnelID)
	if err != nil {
		return nil, err
	}
	return &driver.RemoteRunner{
		Host:         host,
		Browser:      browser,
		Endpoint:     grid.Endpoint(creds, hub),
		Capabilities: caps,
		Logger:       s.Logger,
	}, nil
}

// Open starts a session on target. Remote sessions wait for a rate token
// and a parallel slot; the slot is held until the session is closed.
func (s *Selector) Open(ctx context.Context, target Target, meta models.SessionMeta) (driver.Session, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no target", ErrUnknownTarget)
	}
	start := time.Now()
	sess, err := s.open(ctx, target, meta)
	if s.Metrics != nil {
		s.Metrics.RecordSessionOpen(target.Host(), target.Browser(), time.Since(start), err)
	}
	return sess, err
}

func (s *Selector) open(ctx context.Context, target Target, meta models.SessionMeta) (driver.Session, error) {
	runner, err := s.Runner(target, meta)
	if err != nil {
		return nil, err
	}
	if !target.Remote() {
		return runner.Start(ctx)
	}

	host := string(target.Host())
	if err := s.limiter.Wait(ctx, host); err != nil {
		return nil, fmt.Errorf("waiting for %s session rate: %w", host, err)
	}
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a free %s session slot: %w", host, err)
	}
	s.Logger.Debug("remote slot acquired", zap.String("host", host), zap.Float64("rate_tokens", s.limiter.Tokens(host)))

	sess, err := runner.Start(ctx)
	if err != nil {
		s.slots.Release(1)
		return nil, err
	}
	return &slotSession{Session: sess, release: func() { s.slots.Release(1) }}, nil
}

// slotSession gives the parallel slot back on the first Close
type slotSession struct {
	driver.Session
	release func()
	once    sync.Once
}

func (s *slotSession) Close() error {
	err := s.Session.Close()
	s.once.Do(s.release)
	return err
}
