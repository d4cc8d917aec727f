package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

func parse(t *testing.T, args ...string) (models.RunConfiguration, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := Register(fs)
	require.NoError(t, fs.Parse(args))
	return f.Resolve()
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, models.BrowserChrome, cfg.Browser)
	assert.Equal(t, models.HostLocal, cfg.Host)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "latest", cfg.BrowserVersion)
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.False(t, cfg.Archive)
}

func TestResolveOverrides(t *testing.T) {
	cfg, err := parse(t,
		"--headless", "true",
		"--browser", "Firefox",
		"--baseurl", "http://127.0.0.1:8080/",
		"--host", "GRIDB",
		"--platform", "Windows",
		"--os-version", "10",
		"--browserversion", "120",
		"--archive",
	)
	require.NoError(t, err)

	assert.True(t, cfg.Headless)
	assert.Equal(t, models.BrowserFirefox, cfg.Browser)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, models.HostGridB, cfg.Host)
	assert.Equal(t, "Windows", cfg.Platform)
	assert.Equal(t, "10", cfg.OSVersion)
	assert.Equal(t, "120", cfg.BrowserVersion)
	assert.True(t, cfg.Archive)
}

func TestResolveCollectsEveryProblem(t *testing.T) {
	_, err := parse(t,
		"--headless", "maybe",
		"--browser", "safari",
		"--host", "mars",
		"--baseurl", "not a url",
	)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 4)
	assert.Contains(t, err.Error(), "safari")
	assert.Contains(t, err.Error(), "mars")
}

func TestResolveRemoteGridNeedsPlatform(t *testing.T) {
	for _, host := range []string{"gridA", "gridA-tunnel", "gridB"} {
		t.Run(host, func(t *testing.T) {
			_, err := parse(t, "--host", host)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Errors, 2)
			assert.Contains(t, err.Error(), "--platform")
			assert.Contains(t, err.Error(), "--os-version")
		})
	}

	_, err := parse(t, "--host", "localhost")
	assert.NoError(t, err)
}

func TestRegionFlagListsDataCentres(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	Register(fs)

	usage := fs.Lookup("grid-region").Usage
	assert.Contains(t, usage, "eu-central-1, us-east-4, us-west-1")
}

func TestParseHeadless(t *testing.T) {
	for in, want := range map[string]bool{"True": true, "TRUE": true, "False": false, "": false} {
		got, err := ParseHeadless(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseHeadless("1")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HARNESS_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("HARNESS_TEST_VALUE", "")
	os.Unsetenv("HARNESS_TEST_VALUE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("HARNESS_TEST_VALUE"))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
