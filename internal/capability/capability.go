// Package capability turns a browser choice into launch options for a local
// browser.
package capability

import (
	"slices"
	"strings"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const (
	ArgHeadless          = "--headless"
	ArgStartMaximized    = "start-maximized"
	ArgDisableExtensions = "--disable-extensions"
	ArgLogLevel          = "--log-level=3"
)

// Options is an immutable set of launch options
type Options struct {
	browser  models.Browser
	headless bool
	args     []string
}

// Build returns the launch options for browser.
// Chrome always starts maximized with extensions disabled and quiet logging;
// Firefox only gets the headless toggle.
func Build(browser models.Browser, headless bool) Options {
	var args []string
	if headless {
		args = append(args, ArgHeadless)
	}
	if browser == models.BrowserChrome {
		args = append(args, ArgStartMaximized, ArgDisableExtensions, ArgLogLevel)
	}
	return Options{browser: browser, headless: headless, args: args}
}

func (o Options) Browser() models.Browser { return o.browser }
func (o Options) Headless() bool          { return o.headless }

// Args returns a copy of the launch arguments
func (o Options) Args() []string {
	return slices.Clone(o.args)
}

// HasArg reports whether arg is part of the launch arguments
func (o Options) HasArg(arg string) bool {
	return slices.Contains(o.args, arg)
}

// LaunchArgs are the switches handed to the browser process directly.
// Headless mode goes through the driver's own option, and bare switch names
// get the "--" prefix chromedriver would otherwise add.
func (o Options) LaunchArgs() []string {
	out := make([]string, 0, len(o.args))
	for _, a := range o.args {
		if a == ArgHeadless {
			continue
		}
		if !strings.HasPrefix(a, "-") {
			a = "--" + a
		}
		out = append(out, a)
	}
	return out
}

// Capabilities renders the options as a payload for logs and the report
func (o Options) Capabilities() models.Capabilities {
	return models.Capabilities{
		"browserName": string(o.browser),
		"headless":    o.headless,
		"args":        o.Args(),
	}
}
