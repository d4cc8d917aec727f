// Package environment turns a run configuration into a concrete place to
// run a browser and opens sessions there.
package environment

import (
	"errors"
	"fmt"

	"github.com/shehryarbajwa/e2e-harness/internal/grid"
	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

var (
	// ErrUnknownTarget is a configuration error: no runner exists for the host
	ErrUnknownTarget = errors.New("unknown execution target")
	// ErrUnsupportedBrowser rejects browsers a host cannot run
	ErrUnsupportedBrowser = errors.New("browser not supported on host")
)

// Target is where a session runs. The set of implementations is closed.
type Target interface {
	Host() models.Host
	Browser() models.Browser
	// Remote reports whether the grid expects a pass/fail status command
	Remote() bool
	isTarget()
}

type Local struct {
	BrowserName models.Browser
	Headless    bool
}

// GridA is the first hosted grid. A non-empty TunnelID routes the session
// through a secure tunnel to privately hosted pages.
type GridA struct {
	BrowserName models.Browser
	Creds       grid.Credentials
	HubHost     string
	TunnelID    string
}

type GridB struct {
	BrowserName models.Browser
	Creds       grid.Credentials
	HubHost     string
}

// Container runs chrome in a docker container on this machine
type Container struct{}

func (Local) isTarget()     {}
func (GridA) isTarget()     {}
func (GridB) isTarget()     {}
func (Container) isTarget() {}

func (t Local) Host() models.Host { return models.HostLocal }
func (t GridA) Host() models.Host {
	if t.TunnelID != "" {
		return models.HostGridATunnel
	}
	return models.HostGridA
}
func (t GridB) Host() models.Host   { return models.HostGridB }
func (Container) Host() models.Host { return models.HostContainer }

func (t Local) Browser() models.Browser   { return t.BrowserName }
func (t GridA) Browser() models.Browser   { return t.BrowserName }
func (t GridB) Browser() models.Browser   { return t.BrowserName }
func (Container) Browser() models.Browser { return models.BrowserChrome }

func (Local) Remote() bool     { return false }
func (GridA) Remote() bool     { return true }
func (GridB) Remote() bool     { return true }
func (Container) Remote() bool { return false }

// Resolve picks the target for cfg. Grid credentials and the tunnel id are
// read here so a missing variable fails before any network call.
func Resolve(cfg models.RunConfiguration, getenv grid.Getenv) (Target, error) {
	switch cfg.Host {
	case models.HostLocal:
		return Local{BrowserName: cfg.Browser, Headless: cfg.Headless}, nil

	case models.HostGridA, models.HostGridATunnel:
		creds, err := grid.LoadCredentials(grid.VendorA, getenv)
		if err != nil {
			return nil, err
		}
		var tunnelID string
		if cfg.Host == models.HostGridATunnel {
			if tunnelID, err = grid.LoadTunnelID(getenv); err != nil {
				return nil, err
			}
		}
		hub, err := grid.HubHost(grid.VendorA, cfg.Region)
		if err != nil {
			return nil, err
		}
		return GridA{BrowserName: cfg.Browser, Creds: creds, HubHost: hub, TunnelID: tunnelID}, nil

	case models.HostGridB:
		creds, err := grid.LoadCredentials(grid.VendorB, getenv)
		if err != nil {
			return nil, err
		}
		hub, err := grid.HubHost(grid.VendorB, cfg.Region)
		if err != nil {
			return nil, err
		}
		return GridB{BrowserName: cfg.Browser, Creds: creds, HubHost: hub}, nil

	case models.HostContainer:
		if cfg.Browser != models.BrowserChrome {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedBrowser, cfg.Browser, cfg.Host)
		}
		return Container{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, cfg.Host)
}

// Vendor maps a remote target to its grid, ok is false for local targets
func Vendor(t Target) (grid.Vendor, bool) {
	switch t.(type) {
	case GridA:
		return grid.VendorA, true
	case GridB:
		return grid.VendorB, true
	}
	return "", false
}
