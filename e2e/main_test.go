package e2e

import (
	"testing"

	"github.com/shehryarbajwa/e2e-harness/internal/harness"
)

func TestMain(m *testing.M) {
	harness.Main(m)
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}
}
