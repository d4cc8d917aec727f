package grid

import (
	"encoding/json"
	"fmt"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const (
	gridBSeleniumVersion = "4.1.2"

	reasonPassed = "Assertions have been validated!"
	reasonFailed = "An assertion has failed!"
)

// Payload builds a fresh capability payload for a vendor.
// tunnelID is only used by grid A and may be empty.
func Payload(v Vendor, meta models.SessionMeta, tunnelID string) (models.Capabilities, error) {
	switch v {
	case VendorA:
		options := models.Capabilities{
			"name": meta.TestName,
		}
		if meta.Build != "" {
			options["build"] = meta.Build
		}
		if tunnelID != "" {
			options["tunnelIdentifier"] = tunnelID
		}
		return models.Capabilities{
			"browserName":    string(meta.Browser),
			"browserVersion": meta.BrowserVersion,
			"platformName":   fmt.Sprintf("%s %s", meta.Platform, meta.OSVersion),
			"sauce:options":  options,
		}, nil

	case VendorB:
		options := models.Capabilities{
			"os":              meta.Platform,
			"osVersion":       meta.OSVersion,
			"local":           "false",
			"seleniumVersion": gridBSeleniumVersion,
			"networkLogs":     true,
			"sessionName":     meta.TestName,
		}
		if meta.Build != "" {
			options["buildName"] = meta.Build
		}
		return models.Capabilities{
			"browserName":    string(meta.Browser),
			"browserVersion": meta.BrowserVersion,
			"bstack:options": options,
		}, nil

	default:
		return nil, fmt.Errorf("unknown grid vendor %q", v)
	}
}

type executorCommand struct {
	Action    string         `json:"action"`
	Arguments executorStatus `json:"arguments"`
}

type executorStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// StatusScript is the script a session runs to publish the test outcome
func StatusScript(v Vendor, outcome models.Outcome) (string, error) {
	switch v {
	case VendorA:
		return fmt.Sprintf("sauce:job-result=%s", outcome), nil

	case VendorB:
		reason := reasonPassed
		if outcome == models.OutcomeFailed {
			reason = reasonFailed
		}
		body, err := json.Marshal(executorCommand{
			Action:    "setSessionStatus",
			Arguments: executorStatus{Status: string(outcome), Reason: reason},
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode executor command: %w", err)
		}
		return "browserstack_executor: " + string(body), nil

	default:
		return "", fmt.Errorf("unknown grid vendor %q", v)
	}
}
