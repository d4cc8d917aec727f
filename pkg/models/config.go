package models

import (
	"fmt"
	"strings"
)

// Browser is a browser family a session can be opened with
type Browser string

const (
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
)

// ParseBrowser accepts a browser name in any letter case
func ParseBrowser(s string) (Browser, error) {
	switch b := Browser(strings.ToLower(strings.TrimSpace(s))); b {
	case BrowserChrome, BrowserFirefox:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported browser %q (want chrome or firefox)", s)
	}
}

// Host selects where browser sessions run
type Host string

const (
	HostLocal       Host = "localhost"
	HostGridA       Host = "gridA"
	HostGridATunnel Host = "gridA-tunnel"
	HostGridB       Host = "gridB"
	HostContainer   Host = "container"
)

// Hosts lists every accepted --host value
var Hosts = []Host{HostLocal, HostGridA, HostGridATunnel, HostGridB, HostContainer}

// ParseHost matches a host name case-insensitively
func ParseHost(s string) (Host, error) {
	want := strings.TrimSpace(s)
	for _, h := range Hosts {
		if strings.EqualFold(string(h), want) {
			return h, nil
		}
	}
	return "", fmt.Errorf("unsupported host %q (want one of %v)", s, Hosts)
}

// IsRemoteGrid reports whether sessions on this host live on a hosted grid
func (h Host) IsRemoteGrid() bool {
	switch h {
	case HostGridA, HostGridATunnel, HostGridB:
		return true
	}
	return false
}

// Family collapses tunnel variants onto their grid
func (h Host) Family() string {
	switch h {
	case HostGridA, HostGridATunnel:
		return string(HostGridA)
	default:
		return string(h)
	}
}

// RunConfiguration is resolved once per test run and never mutated afterwards
type RunConfiguration struct {
	BaseURL        string
	Browser        Browser
	Host           Host
	Headless       bool
	Platform       string
	OSVersion      string
	BrowserVersion string
	Region         string
	ReportsDir     string

	// Archive packs the reports directory into a tarball after the run
	Archive bool
}
