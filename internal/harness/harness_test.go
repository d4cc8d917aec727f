package harness

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/driver/drivertest"
	"github.com/shehryarbajwa/e2e-harness/internal/environment"
	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// fakeT records what Session does to a test
type fakeT struct {
	testing.TB
	name     string
	failed   bool
	fatal    string
	cleanups []func()
}

func (f *fakeT) Helper()                           {}
func (f *fakeT) Name() string                      { return f.name }
func (f *fakeT) Failed() bool                      { return f.failed }
func (f *fakeT) Cleanup(fn func())                 { f.cleanups = append(f.cleanups, fn) }
func (f *fakeT) Fatalf(format string, args ...any) { f.fatal = format; f.failed = true }

func (f *fakeT) finish() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
}

type fakeOpener struct {
	sess   *drivertest.Session
	err    error
	opened []models.SessionMeta
}

func (o *fakeOpener) Open(_ context.Context, target environment.Target, meta models.SessionMeta) (driver.Session, error) {
	o.opened = append(o.opened, meta)
	if o.err != nil {
		return nil, o.err
	}
	return o.sess, nil
}

func runtimeFor(t *testing.T, cfg models.RunConfiguration, opener Opener) *Runtime {
	t.Helper()
	cfg.ReportsDir = t.TempDir()
	rt := New(cfg, nil)
	rt.Opener = opener
	rt.Getenv = func(string) string { return "" }
	return rt
}

var localCfg = models.RunConfiguration{BaseURL: "http://localhost:8080", Browser: models.BrowserChrome, Host: models.HostLocal, BrowserVersion: "latest"}

func TestSessionPassedTest(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-1", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestLogin/valid"}

	sess := rt.Session(ft)
	require.NotNil(t, sess)
	require.Len(t, opener.opened, 1)
	assert.Equal(t, "TestLogin/valid", opener.opened[0].TestName)
	assert.Equal(t, rt.Build, opener.opened[0].Build)

	ft.finish()
	assert.Equal(t, 1, opener.sess.Closes)
	assert.Zero(t, opener.sess.Screenshots)

	results := rt.Report.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.OutcomePassed, results[0].Outcome)
}

func TestResultIDIsQualifiedByPackage(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-8", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestLogin/valid"}

	rt.Session(ft)
	ft.finish()

	results := rt.Report.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "github.com/shehryarbajwa/e2e-harness/internal/harness.TestLogin/valid", results[0].ID)
	assert.Equal(t, "TestLogin/valid", results[0].Name)
}

func TestPackageOf(t *testing.T) {
	cases := []struct{ fn, want string }{
		{"github.com/shehryarbajwa/e2e-harness/e2e.TestLogin", "github.com/shehryarbajwa/e2e-harness/e2e"},
		{"github.com/shehryarbajwa/e2e-harness/e2e.TestLogin.func1", "github.com/shehryarbajwa/e2e-harness/e2e"},
		{"github.com/shehryarbajwa/e2e-harness/internal/pages.(*Login).Visit", "github.com/shehryarbajwa/e2e-harness/internal/pages"},
		{"main.main", "main"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, packageOf(tc.fn), tc.fn)
	}
	assert.Equal(t, "pkg.TestX", QualifiedName("pkg", "TestX"))
	assert.Equal(t, "TestX", QualifiedName("", "TestX"))
}

func TestSessionFailedTestCapturesScreenshot(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-2", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestLogin/invalid"}

	rt.Session(ft)
	ft.failed = true
	ft.finish()

	assert.Equal(t, 1, opener.sess.Closes)
	results := rt.Report.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.OutcomeFailed, results[0].Outcome)
	assert.FileExists(t, results[0].Screenshot)
}

func TestSessionMissingCredentialsFailsBeforeOpen(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-3", models.HostGridB)}
	cfg := localCfg
	cfg.Host = models.HostGridB
	cfg.Platform, cfg.OSVersion = "Windows", "11"
	rt := runtimeFor(t, cfg, opener)
	ft := &fakeT{name: "TestLogin/valid"}

	assert.Nil(t, rt.Session(ft))
	assert.True(t, strings.HasPrefix(ft.fatal, "setup:"))
	assert.Empty(t, opener.opened, "no session is attempted without credentials")
	assert.Empty(t, ft.cleanups)

	n, err := testutil.GatherAndCount(rt.Metrics.Registry(), "e2e_session_open_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionOpenFailureIsSetupError(t *testing.T) {
	opener := &fakeOpener{err: errors.New("grid unreachable")}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestX"}

	assert.Nil(t, rt.Session(ft))
	assert.Contains(t, ft.fatal, "could not open")
	assert.Empty(t, ft.cleanups)
}

func TestRemoteSessionGetsBuildAndPlatform(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-4", models.HostGridA)}
	cfg := localCfg
	cfg.Host = models.HostGridA
	cfg.Platform, cfg.OSVersion = "macOS", "13"
	rt := runtimeFor(t, cfg, opener)
	rt.Getenv = func(k string) string {
		return map[string]string{grid.EnvGridAUsername: "alice", grid.EnvGridAAccessKey: "key"}[k]
	}
	ft := &fakeT{name: "TestX"}

	rt.Session(ft)
	ft.finish()

	require.Len(t, opener.opened, 1)
	assert.Equal(t, "macOS", opener.opened[0].Platform)
	assert.Equal(t, []string{"sauce:job-result=passed"}, opener.sess.Scripts)
}

func TestFinishWritesReportAndMetrics(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-5", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestX"}
	rt.Session(ft)
	ft.finish()

	require.NoError(t, rt.Finish())

	reports, err := filepath.Glob(filepath.Join(rt.Config.ReportsDir, "*", "report_*.html"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.FileExists(t, strings.TrimSuffix(reports[0], ".html")+".prom")
}

func TestFinishArchivesReports(t *testing.T) {
	cfg := localCfg
	cfg.Archive = true
	rt := runtimeFor(t, cfg, &fakeOpener{})

	require.NoError(t, rt.Finish())
	assert.FileExists(t, filepath.Join(rt.Config.ReportsDir, ArchiveName))
}

func TestRunFinalizesWhenBodyReturns(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-6", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestDynamicLoading"}

	var got driver.Session
	rt.Run(ft, func(sess driver.Session) {
		got = sess
		ft.failed = true
	})

	assert.Same(t, opener.sess, got)
	assert.Empty(t, ft.cleanups, "the session is finalized by Run, not by a cleanup")
	assert.Equal(t, 1, opener.sess.Closes)
	assert.Equal(t, 1, opener.sess.Screenshots)

	results := rt.Report.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.OutcomeFailed, results[0].Outcome)
}

func TestRunFinalizesWhenBodyStopsTheTest(t *testing.T) {
	opener := &fakeOpener{sess: drivertest.New("s-7", models.HostLocal)}
	rt := runtimeFor(t, localCfg, opener)
	ft := &fakeT{name: "TestDynamicLoading"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		rt.Run(ft, func(driver.Session) {
			// what t.FailNow does once it has marked the test failed
			runtime.Goexit()
		})
	}()
	<-done

	assert.Equal(t, 1, opener.sess.Closes)
	results := rt.Report.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.OutcomeFailed, results[0].Outcome)
}

func TestRunSetupFailureSkipsBody(t *testing.T) {
	rt := runtimeFor(t, localCfg, &fakeOpener{err: errors.New("grid unreachable")})
	ft := &fakeT{name: "TestX"}

	ran := false
	rt.Run(ft, func(driver.Session) { ran = true })
	assert.False(t, ran)
	assert.Contains(t, ft.fatal, "could not open")
	assert.Empty(t, rt.Report.Results())
}

func TestFinishJoinsErrors(t *testing.T) {
	rt := runtimeFor(t, localCfg, &fakeOpener{})
	errPool := errors.New("pool close failed")
	errOther := errors.New("other close failed")
	rt.closers = append(rt.closers, func() error { return errPool }, func() error { return errOther })

	err := rt.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, errPool)
	assert.ErrorIs(t, err, errOther)
}

func TestPackageSessionWithoutMain(t *testing.T) {
	ft := &fakeT{name: "TestX"}
	assert.Nil(t, Session(ft))
	assert.Contains(t, ft.fatal, "harness.Main")

	ft = &fakeT{name: "TestX"}
	Run(ft, func(driver.Session) { t.Error("body ran without a runtime") })
	assert.Contains(t, ft.fatal, "harness.Main")

	assert.Equal(t, models.RunConfiguration{}, Config())
	assert.NotNil(t, Logger())
}

type fakeM struct {
	ran  bool
	code int
}

func (m *fakeM) Run() int {
	m.ran = true
	return m.code
}

func TestRunRejectsBadFlags(t *testing.T) {
	m := &fakeM{}
	fs := flag.NewFlagSet("e2e", flag.ContinueOnError)

	code := run(m, fs, []string{"-browser", "safari"})
	assert.Equal(t, 2, code)
	assert.False(t, m.ran)
}

func TestRunWithoutSessionsLeavesNoReport(t *testing.T) {
	dir := t.TempDir()
	m := &fakeM{code: 1}
	fs := flag.NewFlagSet("e2e", flag.ContinueOnError)

	code := run(m, fs, []string{"-reports-dir", dir, "-log-level", "error"})
	assert.Equal(t, 1, code)
	assert.True(t, m.ran)
	assert.Nil(t, Current(), "runtime is uninstalled after the run")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
