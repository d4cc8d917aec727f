// Package lifecycle finishes a test's browser session: it tells the grid how
// the test went, keeps a screenshot of failures and always closes the browser.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/e2e-harness/internal/artifacts"
	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/environment"
	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/internal/metrics"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

// ScreenshotCaptureError is logged, never returned to the test
type ScreenshotCaptureError struct {
	TestID string
	Err    error
}

func (e *ScreenshotCaptureError) Error() string {
	return fmt.Sprintf("failed to capture screenshot for %s: %v", e.TestID, e.Err)
}

func (e *ScreenshotCaptureError) Unwrap() error {
	return e.Err
}

// Finding is what the test framework knows once the test body is over
type Finding struct {
	TestID  string
	Name    string // display name, TestID when empty
	Outcome models.Outcome
	Started time.Time
}

// Reporter finalizes sessions. Store, Report and Metrics are optional.
type Reporter struct {
	Store   *artifacts.Store
	Report  *artifacts.Report
	Metrics *metrics.Collector
	Logger  *zap.Logger
	// Now is replaced in tests
	Now func() time.Time
}

func (r *Reporter) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Reporter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Finalize reports the outcome to remote grids, captures a screenshot when
// the test failed and closes the session exactly once. Reporting and capture
// problems are logged and noted on the result; they never change the outcome.
func (r *Reporter) Finalize(sess driver.Session, target environment.Target, f Finding) models.TestResult {
	logger := r.logger().With(zap.String("test", f.TestID))
	result := models.TestResult{
		ID:      f.TestID,
		Name:    f.Name,
		Outcome: f.Outcome,
	}
	if result.Name == "" {
		result.Name = f.TestID
	}
	if sess != nil {
		result.SessionID = sess.Info().ID
		logger = logger.With(zap.String("session_id", result.SessionID))
	}

	if sess != nil && target != nil && target.Remote() {
		if err := r.reportStatus(sess, target, f.Outcome); err != nil {
			logger.Warn("failed to report status to grid", zap.String("host", string(target.Host())), zap.Error(err))
			result.Notes = append(result.Notes, "status report failed: "+err.Error())
			if r.Metrics != nil {
				r.Metrics.RecordStatusFailure(target.Host())
			}
		}
	}

	if sess != nil && f.Outcome == models.OutcomeFailed {
		path, err := r.captureScreenshot(sess, f.TestID)
		if err != nil {
			logger.Warn("screenshot not captured", zap.Error(err))
			result.Notes = append(result.Notes, err.Error())
			if r.Metrics != nil {
				r.Metrics.RecordScreenshotFailure()
			}
		} else {
			result.Screenshot = path
			logger.Info("failure screenshot saved", zap.String("path", path))
		}
	}

	if sess != nil {
		if err := sess.Close(); err != nil && !errors.Is(err, driver.ErrSessionClosed) {
			logger.Warn("failed to close session", zap.Error(err))
			result.Notes = append(result.Notes, "close failed: "+err.Error())
		}
	}

	finished := r.now()
	result.FinishedAt = finished
	if !f.Started.IsZero() {
		result.Duration = finished.Sub(f.Started)
	}

	if r.Metrics != nil && target != nil {
		r.Metrics.RecordOutcome(target.Host(), result.Outcome)
	}
	if r.Report != nil {
		r.Report.Record(result)
	}
	logger.Info("test finished", zap.String("outcome", string(result.Outcome)), zap.Duration("duration", result.Duration))
	return result
}

func (r *Reporter) reportStatus(sess driver.Session, target environment.Target, outcome models.Outcome) error {
	vendor, ok := environment.Vendor(target)
	if !ok {
		return fmt.Errorf("%s has no status command", target.Host())
	}
	script, err := grid.StatusScript(vendor, outcome)
	if err != nil {
		return err
	}
	return sess.ExecuteScript(script)
}

func (r *Reporter) captureScreenshot(sess driver.Session, testID string) (string, error) {
	if r.Store == nil {
		return "", &ScreenshotCaptureError{TestID: testID, Err: errors.New("no artifact store")}
	}
	png, err := sess.Screenshot()
	if err != nil {
		return "", &ScreenshotCaptureError{TestID: testID, Err: err}
	}
	path, err := r.Store.SaveScreenshot(testID, png, r.now())
	if err != nil {
		return "", &ScreenshotCaptureError{TestID: testID, Err: err}
	}
	return path, nil
}

// Guard runs body against sess and finalizes afterwards. failed is asked for
// the outcome once body returns. A body that panics or exits its goroutine
// early (t.FailNow, runtime.Goexit) is recorded as a failure and the session
// is still finalized; a panic continues afterwards.
func (r *Reporter) Guard(sess driver.Session, target environment.Target, f Finding, failed func() bool, body func()) (result models.TestResult) {
	completed := false
	defer func() {
		if completed {
			return
		}
		p := recover()
		f.Outcome = models.OutcomeFailed
		res := r.Finalize(sess, target, f)
		if p != nil {
			r.logger().Error("test panicked", zap.String("test", f.TestID), zap.Any("panic", p), zap.Strings("notes", res.Notes))
			panic(p)
		}
		r.logger().Warn("test exited early", zap.String("test", f.TestID))
	}()

	body()
	completed = true
	f.Outcome = models.OutcomeFromFailed(failed != nil && failed())
	return r.Finalize(sess, target, f)
}
