package region

import (
	"fmt"
	"sort"
	"sync"
)

// Region represents a grid data centre
type Region string

const (
	RegionGlobal     Region = ""
	RegionUSWest1    Region = "us-west-1"
	RegionUSEast4    Region = "us-east-4"
	RegionEUCentral1 Region = "eu-central-1"
)

// Manager maps the data centres of one grid vendor to their hub hosts
type Manager struct {
	hubs     map[Region]string
	fallback Region
	mu       sync.RWMutex
}

// NewManager creates a manager that routes unknown regions to fallback
func NewManager(hubs map[Region]string, fallback Region) (*Manager, error) {
	if _, ok := hubs[fallback]; !ok {
		return nil, fmt.Errorf("fallback region %q has no hub host", fallback)
	}

	m := &Manager{
		hubs:     make(map[Region]string, len(hubs)),
		fallback: fallback,
	}
	for r, host := range hubs {
		m.hubs[r] = host
	}
	return m, nil
}

// RouteSession determines the data centre a session is opened in
func (m *Manager) RouteSession(requestedRegion string) Region {
	region := Region(requestedRegion)

	m.mu.RLock()
	_, exists := m.hubs[region]
	m.mu.RUnlock()

	if exists {
		return region
	}

	return m.fallback
}

// HubHost returns the hub host for a region
func (m *Manager) HubHost(region Region) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	host, exists := m.hubs[region]
	if !exists {
		return "", fmt.Errorf("unsupported region: %q", region)
	}

	return host, nil
}

// GetRegions returns all routable regions, sorted
func (m *Manager) GetRegions() []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regions := make([]Region, 0, len(m.hubs))
	for region := range m.hubs {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	return regions
}
