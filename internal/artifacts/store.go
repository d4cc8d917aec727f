// Package artifacts lays out everything a run leaves behind: the dated HTML
// report, failure screenshots and a tarball of both for CI upload.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	reportDayLayout      = "2006-01-02"
	reportTimeLayout     = "1504"
	screenshotTimeLayout = "2006-01-02_15_04"
	screenshotDir        = "screenshots"
)

// Store resolves artifact paths under a reports root
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// ReportPath is <root>/<YYYY-MM-DD>/report_<HHMM>.html
func (s *Store) ReportPath(now time.Time) string {
	return filepath.Join(s.root, now.Format(reportDayLayout), fmt.Sprintf("report_%s.html", now.Format(reportTimeLayout)))
}

// ScreenshotPath is <root>/screenshots/<sanitized-id>_<YYYY-MM-DD_HH_MM>.png
func (s *Store) ScreenshotPath(testID string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.png", SanitizeID(testID), now.Format(screenshotTimeLayout))
	return filepath.Join(s.root, screenshotDir, name)
}

// SanitizeID turns a test identifier into a safe file name fragment. Only
// ASCII letters, digits, '.', '-' and '_' survive; every other byte becomes '_'.
func SanitizeID(testID string) string {
	if testID == "" {
		return "unnamed"
	}
	id := []byte(testID)
	for i, c := range id {
		if !safeIDByte(c) {
			id[i] = '_'
		}
	}
	return string(id)
}

func safeIDByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '.' || c == '-' || c == '_'
}

// SaveScreenshot writes png bytes for testID and returns the file path
func (s *Store) SaveScreenshot(testID string, png []byte, now time.Time) (string, error) {
	path := s.ScreenshotPath(testID, now)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}
