package models

import "time"

// SessionInfo describes a live browser session
type SessionInfo struct {
	ID          string    `json:"id"`
	Host        Host      `json:"host"`
	Browser     Browser   `json:"browser"`
	StartedAt   time.Time `json:"startedAt"`
	ContainerID string    `json:"-"`
}

// Capabilities is a vendor or browser specific session payload.
// Values are strings, bools or nested Capabilities.
type Capabilities map[string]interface{}

// SessionMeta is the per-test metadata a remote grid session is labelled with
type SessionMeta struct {
	TestName       string
	Build          string
	Browser        Browser
	BrowserVersion string
	Platform       string
	OSVersion      string
}
