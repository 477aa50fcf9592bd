package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Built-in login server endpoints
const (
	ProductionName = "Production"
	ProductionURL  = "https://login.salesforce.com"
	SandboxName    = "Sandbox"
	SandboxURL     = "https://test.salesforce.com"
	OtherName      = "Other"
	OtherURL       = "https://other.salesforce.com"
)

// LoginServer represents a named authentication endpoint
type LoginServer struct {
	Name     string `json:"name" yaml:"name" bson:"name"`
	URL      string `json:"url" yaml:"url" bson:"url"`
	IsCustom bool   `json:"is_custom" yaml:"is_custom" bson:"is_custom"`
}

// NewCustomLoginServer creates a user-added login server
func NewCustomLoginServer(name, serverURL string) LoginServer {
	return LoginServer{Name: name, URL: serverURL, IsCustom: true}
}

// String returns "name (url)"
func (s LoginServer) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.URL)
}

// builtinLoginServers is the fixed table shipped with the application.
// Order matters: the first entry is the default selection.
var builtinLoginServers = [...]LoginServer{
	{Name: ProductionName, URL: ProductionURL},
	{Name: SandboxName, URL: SandboxURL},
	{Name: OtherName, URL: OtherURL},
}

// BuiltinLoginServers returns a fresh copy of the built-in login servers in declaration order
func BuiltinLoginServers() []LoginServer {
	servers := make([]LoginServer, len(builtinLoginServers))
	copy(servers, builtinLoginServers[:])
	return servers
}

// DefaultLoginServer returns the first built-in login server
func DefaultLoginServer() LoginServer {
	return builtinLoginServers[0]
}

// SandboxLoginServer returns the built-in sandbox login server
func SandboxLoginServer() LoginServer {
	return builtinLoginServers[1]
}

// ValidateLoginServer checks user input before it is handed to the registry.
// The registry itself accepts anything; callers that take input from users
// (API, CLI) are expected to run this first.
func ValidateLoginServer(name, serverURL string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("login server name cannot be empty")
	}
	if serverURL == "" {
		return fmt.Errorf("login server url cannot be empty")
	}
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid login server url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("login server url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("login server url must be absolute")
	}
	return nil
}
