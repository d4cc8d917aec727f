// Package harness wires configuration, session opening and finalization into
// the go test lifecycle. A suite calls Main from TestMain and Session or Run
// from each test that needs a browser.
package harness

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/artifacts"
	"github.com/shehryarbajwa/e2e-harness/internal/browser"
	"github.com/shehryarbajwa/e2e-harness/internal/config"
	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/environment"
	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/internal/lifecycle"
	"github.com/shehryarbajwa/e2e-harness/internal/logging"
	"github.com/shehryarbajwa/e2e-harness/internal/metrics"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// ArchiveName is the tarball written into the reports directory by --archive
const ArchiveName = "reports.tar.gz"

// Opener opens sessions on a target; *environment.Selector is the real one
type Opener interface {
	Open(ctx context.Context, target environment.Target, meta models.SessionMeta) (driver.Session, error)
}

// Runtime is everything a run shares between its tests
type Runtime struct {
	Config   models.RunConfiguration
	Logger   *zap.Logger
	Store    *artifacts.Store
	Report   *artifacts.Report
	Metrics  *metrics.Collector
	Reporter *lifecycle.Reporter
	Opener   Opener
	Getenv   grid.Getenv
	Build    string
	Started  time.Time

	closers []func() error
}

// New builds a runtime for cfg. Sessions open through an environment.Selector.
func New(cfg models.RunConfiguration, logger *zap.Logger) *Runtime {
	logger = logging.OrNop(logger)
	started := time.Now()
	store := artifacts.NewStore(cfg.ReportsDir)
	report := artifacts.NewReport(artifacts.MetadataFor(cfg), started)
	collector := metrics.NewCollector(logger)

	selector := environment.NewSelector(logger)
	selector.Metrics = collector

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Report:  report,
		Metrics: collector,
		Reporter: &lifecycle.Reporter{
			Store:   store,
			Report:  report,
			Metrics: collector,
			Logger:  logger,
		},
		Opener:  selector,
		Getenv:  os.Getenv,
		Build:   BuildName(started),
		Started: started,
	}
}

// BuildName labels every remote session of one run
func BuildName(started time.Time) string {
	return fmt.Sprintf("e2e-%s-%s", started.Format("2006-01-02_15_04"), strings.SplitN(uuid.New().String(), "-", 2)[0])
}

// UseContainers attaches a docker pool so the container host can run
func (rt *Runtime) UseContainers(ctx context.Context) error {
	selector, ok := rt.Opener.(*environment.Selector)
	if !ok {
		return fmt.Errorf("container pool needs the environment selector")
	}
	pool, err := browser.NewPool(browser.DefaultImage, rt.Logger)
	if err != nil {
		return err
	}
	if err := pool.EnsureImage(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ensure browser image: %w", err)
	}
	selector.Pool = pool
	rt.closers = append(rt.closers, pool.Close)
	return nil
}

// Session opens a browser for t and finalizes it when t finishes, whether
// the test passed, failed, called FailNow or panicked. A session that cannot
// be opened stops the test before its body runs.
func (rt *Runtime) Session(t testing.TB) driver.Session {
	t.Helper()
	o, ok := rt.open(t)
	if !ok {
		return nil
	}
	t.Cleanup(func() {
		rt.Reporter.Finalize(o.sess, o.target, o.finding(models.OutcomeFromFailed(t.Failed())))
	})
	return o.sess
}

// Run opens a browser for t and runs body against it. The session is
// finalized as soon as body is over, before t's cleanups run.
func (rt *Runtime) Run(t testing.TB, body func(sess driver.Session)) {
	t.Helper()
	o, ok := rt.open(t)
	if !ok {
		return
	}
	rt.Reporter.Guard(o.sess, o.target, o.finding(""), t.Failed, func() {
		body(o.sess)
	})
}

type opened struct {
	sess    driver.Session
	target  environment.Target
	id      string
	name    string
	started time.Time
}

func (o opened) finding(outcome models.Outcome) lifecycle.Finding {
	return lifecycle.Finding{TestID: o.id, Name: o.name, Outcome: outcome, Started: o.started}
}

func (rt *Runtime) open(t testing.TB) (opened, bool) {
	t.Helper()
	o := opened{id: QualifiedName(callerPackage(), t.Name()), name: t.Name()}

	target, err := environment.Resolve(rt.Config, rt.Getenv)
	if err != nil {
		rt.Metrics.RecordSetupFailure(rt.Config.Host, err)
		t.Fatalf("setup: %v", err)
		return o, false
	}
	o.target = target

	meta := models.SessionMeta{
		TestName:       t.Name(),
		Build:          rt.Build,
		Browser:        rt.Config.Browser,
		BrowserVersion: rt.Config.BrowserVersion,
		Platform:       rt.Config.Platform,
		OSVersion:      rt.Config.OSVersion,
	}

	o.started = time.Now()
	sess, err := rt.Opener.Open(context.Background(), target, meta)
	if err != nil {
		t.Fatalf("setup: could not open %s session on %s: %v", rt.Config.Browser, rt.Config.Host, err)
		return o, false
	}
	o.sess = sess
	return o, true
}

// QualifiedName qualifies a test name with the import path of its package so
// equally named tests in different packages stay apart
func QualifiedName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

var harnessFile = func() string {
	_, file, _, _ := runtime.Caller(0)
	return file
}()

// callerPackage returns the import path of the first caller outside this file
func callerPackage() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != harnessFile && frame.Function != "" {
			return packageOf(frame.Function)
		}
		if !more {
			return ""
		}
	}
}

// packageOf cuts a fully qualified function name down to its import path
func packageOf(fn string) string {
	slash := strings.LastIndex(fn, "/")
	dot := strings.Index(fn[slash+1:], ".")
	if dot < 0 {
		return fn
	}
	return fn[:slash+1+dot]
}

// Finish writes the HTML report and the metrics textfile next to it.
// A run in which no test opened a browser leaves no report behind.
func (rt *Runtime) Finish() error {
	var errs []error
	if len(rt.Report.Results()) > 0 {
		now := time.Now()
		reportPath := rt.Store.ReportPath(now)
		if err := rt.Report.Write(reportPath, now); err != nil {
			errs = append(errs, err)
		} else {
			rt.Logger.Info("report written", zap.String("path", reportPath))
		}

		metricsPath := strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + ".prom"
		if err := rt.Metrics.WriteTextfile(metricsPath); err != nil {
			errs = append(errs, err)
		}
	}

	if rt.Config.Archive {
		archivePath := filepath.Join(rt.Store.Root(), ArchiveName)
		if err := artifacts.Archive(rt.Store.Root(), archivePath); err != nil {
			errs = append(errs, fmt.Errorf("failed to archive reports: %w", err))
		} else {
			rt.Logger.Info("reports archived", zap.String("path", archivePath))
		}
	}

	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

var (
	mu      sync.RWMutex
	current *Runtime
)

func setCurrent(rt *Runtime) {
	mu.Lock()
	defer mu.Unlock()
	current = rt
}

// Current returns the runtime installed by Main, or nil
func Current() *Runtime {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Main parses the harness flags, runs the suite and exits with its code
func Main(m *testing.M) {
	os.Exit(run(m, flag.CommandLine, os.Args[1:]))
}

func run(m interface{ Run() int }, fs *flag.FlagSet, args []string) int {
	flags := config.Register(fs)
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return 2
		}
	}

	logger, err := logging.New(flags.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		return 2
	}
	defer logger.Sync()

	if err := config.LoadDotEnv(); err != nil {
		logger.Debug("using process environment only", zap.Error(err))
	}

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		return 2
	}

	rt := New(cfg, logger)
	if cfg.Host == models.HostContainer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		err := rt.UseContainers(ctx)
		cancel()
		if err != nil {
			logger.Error("container host unavailable", zap.Error(err))
			return 2
		}
	}

	setCurrent(rt)
	defer setCurrent(nil)

	logger.Info("starting run",
		zap.String("base_url", cfg.BaseURL),
		zap.String("browser", string(cfg.Browser)),
		zap.String("host", string(cfg.Host)),
		zap.Bool("headless", cfg.Headless),
		zap.String("build", rt.Build))

	code := m.Run()

	if err := rt.Finish(); err != nil {
		logger.Error("failed to write run artifacts", zap.Error(err))
	}
	return code
}

// Session opens a browser for t on the runtime installed by Main
func Session(t testing.TB) driver.Session {
	t.Helper()
	rt := Current()
	if rt == nil {
		t.Fatalf("setup: harness.Main must be called from TestMain")
		return nil
	}
	return rt.Session(t)
}

// Run runs body against a browser opened on the runtime installed by Main
func Run(t testing.TB, body func(sess driver.Session)) {
	t.Helper()
	rt := Current()
	if rt == nil {
		t.Fatalf("setup: harness.Main must be called from TestMain")
		return
	}
	rt.Run(t, body)
}

// Config returns the run configuration installed by Main
func Config() models.RunConfiguration {
	if rt := Current(); rt != nil {
		return rt.Config
	}
	return models.RunConfiguration{}
}

// Logger returns the run logger, or a no-op logger outside a run
func Logger() *zap.Logger {
	if rt := Current(); rt != nil {
		return rt.Logger
	}
	return zap.NewNop()
}
