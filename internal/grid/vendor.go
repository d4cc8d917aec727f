// Package grid describes the hosted WebDriver grids sessions can run on:
// credentials, hub endpoints, capability payloads and status reporting.
package grid

import (
	"fmt"

	"github.com/shehryarbajwa/e2e-harness/internal/region"
)

// Vendor identifies a hosted grid
type Vendor string

const (
	VendorA Vendor = "gridA"
	VendorB Vendor = "gridB"
)

const (
	EnvGridAUsername  = "GRIDA_USERNAME"
	EnvGridAAccessKey = "GRIDA_ACCESS_KEY"
	EnvGridATunnelID  = "GRIDA_TUNNEL_ID"
	EnvGridBUsername  = "GRIDB_USERNAME"
	EnvGridBAccessKey = "GRIDB_ACCESS_KEY"
)

const (
	gridAGlobalHub = "ondemand.saucelabs.com"
	gridBHub       = "hub.browserstack.com"
)

type vendorSpec struct {
	usernameEnv  string
	accessKeyEnv string
	hubs         map[region.Region]string
}

var vendors = map[Vendor]vendorSpec{
	VendorA: {
		usernameEnv:  EnvGridAUsername,
		accessKeyEnv: EnvGridAAccessKey,
		hubs: map[region.Region]string{
			region.RegionGlobal:     gridAGlobalHub,
			region.RegionUSWest1:    "ondemand.us-west-1.saucelabs.com",
			region.RegionUSEast4:    "ondemand.us-east-4.saucelabs.com",
			region.RegionEUCentral1: "ondemand.eu-central-1.saucelabs.com",
		},
	},
	VendorB: {
		usernameEnv:  EnvGridBUsername,
		accessKeyEnv: EnvGridBAccessKey,
		hubs: map[region.Region]string{
			region.RegionGlobal: gridBHub,
		},
	},
}

func lookup(v Vendor) (vendorSpec, error) {
	spec, ok := vendors[v]
	if !ok {
		return vendorSpec{}, fmt.Errorf("unknown grid vendor %q", v)
	}
	return spec, nil
}

// Regions returns the data centre router for a vendor
func Regions(v Vendor) (*region.Manager, error) {
	spec, err := lookup(v)
	if err != nil {
		return nil, err
	}
	return region.NewManager(spec.hubs, region.RegionGlobal)
}

// KnownRegions lists the named data centres of a vendor, sorted. The global
// hub is implied and not listed.
func KnownRegions(v Vendor) []string {
	regions, err := Regions(v)
	if err != nil {
		return nil
	}
	var names []string
	for _, r := range regions.GetRegions() {
		if r != region.RegionGlobal {
			names = append(names, string(r))
		}
	}
	return names
}

// HubHost resolves the hub host for a requested data centre,
// falling back to the vendor's global hub.
func HubHost(v Vendor, requestedRegion string) (string, error) {
	regions, err := Regions(v)
	if err != nil {
		return "", err
	}
	return regions.HubHost(regions.RouteSession(requestedRegion))
}
