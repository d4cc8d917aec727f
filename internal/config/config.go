// Package config resolves the run configuration from command line flags and
// the process environment. Flags are registered on a caller supplied FlagSet so
// the same definitions serve `go test` binaries and standalone commands.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const (
	DefaultBaseURL        = "http://the-internet.herokuapp.com"
	DefaultBrowserVersion = "latest"
	DefaultReportsDir     = "reports"
	DefaultLogLevel       = "info"
)

// Flags holds the raw flag values until Resolve validates them
type Flags struct {
	Headless       string
	BaseURL        string
	Browser        string
	BrowserVersion string
	Host           string
	Platform       string
	OSVersion      string
	Region         string
	ReportsDir     string
	LogLevel       string
	Archive        bool
}

// ValidationError lists every problem found in one resolution pass
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Register defines the harness flags on fs
func Register(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Headless, "headless", "False", "Whether or not to run tests in headless mode (True|False)")
	fs.StringVar(&f.BaseURL, "baseurl", DefaultBaseURL, "base url for the test")
	fs.StringVar(&f.Browser, "browser", string(models.BrowserChrome), "browser for the test (chrome|firefox)")
	fs.StringVar(&f.BrowserVersion, "browserversion", DefaultBrowserVersion, "browser version for the test")
	fs.StringVar(&f.Host, "host", string(models.HostLocal), "host for the test: localhost, gridA, gridA-tunnel, gridB, container")
	fs.StringVar(&f.Platform, "platform", "", "OS platform for remote grid sessions")
	fs.StringVar(&f.OSVersion, "os-version", "", "OS version for remote grid sessions")
	fs.StringVar(&f.Region, "grid-region", "", fmt.Sprintf("grid A data centre (%s); anything else uses the global hub",
		strings.Join(grid.KnownRegions(grid.VendorA), ", ")))
	fs.StringVar(&f.ReportsDir, "reports-dir", DefaultReportsDir, "directory for html reports and screenshots")
	fs.BoolVar(&f.Archive, "archive", false, "pack the reports directory into reports.tar.gz after the run")
	fs.StringVar(&f.LogLevel, "log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	return f
}

// LoadDotEnv loads .env into the process environment if the file exists.
// Variables already set win over the file.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("no .env file loaded: %w", err)
	}
	return nil
}

// Resolve validates the flag values and builds the immutable run configuration
func (f *Flags) Resolve() (models.RunConfiguration, error) {
	var problems []string
	cfg := models.RunConfiguration{
		BrowserVersion: strings.TrimSpace(f.BrowserVersion),
		Platform:       strings.TrimSpace(f.Platform),
		OSVersion:      strings.TrimSpace(f.OSVersion),
		Region:         strings.TrimSpace(f.Region),
		ReportsDir:     strings.TrimSpace(f.ReportsDir),
		Archive:        f.Archive,
	}

	headless, err := ParseHeadless(f.Headless)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Headless = headless

	browser, err := models.ParseBrowser(f.Browser)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Browser = browser

	host, err := models.ParseHost(f.Host)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Host = host

	base := strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("baseurl %q must be an absolute http(s) url", f.BaseURL))
	}
	cfg.BaseURL = base

	if cfg.BrowserVersion == "" {
		cfg.BrowserVersion = DefaultBrowserVersion
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = DefaultReportsDir
	}

	if host.IsRemoteGrid() {
		if cfg.Platform == "" {
			problems = append(problems, fmt.Sprintf("--platform is required for host %s", host))
		}
		if cfg.OSVersion == "" {
			problems = append(problems, fmt.Sprintf("--os-version is required for host %s", host))
		}
	}

	if len(problems) > 0 {
		return models.RunConfiguration{}, &ValidationError{Errors: problems}
	}
	return cfg, nil
}

// ParseHeadless accepts True/False in any letter case; empty means false
func ParseHeadless(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("headless must be True or False, got %q", s)
	}
}
