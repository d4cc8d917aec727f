package grid

import (
	"fmt"
	"net/url"
	"strings"
)

// Getenv matches os.Getenv so tests can supply their own environment
type Getenv func(string) string

// Credentials authenticate against a grid hub
type Credentials struct {
	Username  string
	AccessKey string
}

// String never prints the access key
func (c Credentials) String() string {
	return fmt.Sprintf("%s:****", c.Username)
}

// MissingCredentialsError names the environment variables that were unset
type MissingCredentialsError struct {
	Vendor  Vendor
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing credentials for %s: set %s", e.Vendor, strings.Join(e.Missing, ", "))
}

// LoadCredentials reads the vendor's username and access key
func LoadCredentials(v Vendor, getenv Getenv) (Credentials, error) {
	spec, err := lookup(v)
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{
		Username:  strings.TrimSpace(getenv(spec.usernameEnv)),
		AccessKey: strings.TrimSpace(getenv(spec.accessKeyEnv)),
	}

	var missing []string
	if creds.Username == "" {
		missing = append(missing, spec.usernameEnv)
	}
	if creds.AccessKey == "" {
		missing = append(missing, spec.accessKeyEnv)
	}
	if len(missing) > 0 {
		return Credentials{}, &MissingCredentialsError{Vendor: v, Missing: missing}
	}

	return creds, nil
}

// LoadTunnelID reads the grid A tunnel identifier
func LoadTunnelID(getenv Getenv) (string, error) {
	id := strings.TrimSpace(getenv(EnvGridATunnelID))
	if id == "" {
		return "", &MissingCredentialsError{Vendor: VendorA, Missing: []string{EnvGridATunnelID}}
	}
	return id, nil
}

// Endpoint builds the command executor URL with the credentials embedded
func Endpoint(creds Credentials, hubHost string) string {
	u := url.URL{
		Scheme: "https",
		User:   url.UserPassword(creds.Username, creds.AccessKey),
		Host:   hubHost,
		Path:   "/wd/hub",
	}
	return u.String()
}
