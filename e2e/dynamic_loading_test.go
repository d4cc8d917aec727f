package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/e2e-harness/internal/driver"
	"github.com/shehryarbajwa/e2e-harness/internal/harness"
	"github.com/shehryarbajwa/e2e-harness/internal/pages"
)

func TestFinishLoadingPage(t *testing.T) {
	skipShort(t)
	t.Parallel()

	harness.Run(t, func(sess driver.Session) {
		page, err := pages.NewDynamicLoadingPage(sess, harness.Config().BaseURL, harness.Logger())
		require.NoError(t, err)

		require.NoError(t, page.ClickStartButton())
		assert.True(t, page.IsHelloWorldTextPresent())
	})
}
