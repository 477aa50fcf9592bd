// Package api provides the HTTP handlers for the login server registry.
package api

// APIVersion represents the API capability level reported on /status.
// Versioning refers to capability levels, not URL prefixes.
const (
	// APIVersion1 is the initial registry API.
	APIVersion1 = 1

	// CurrentAPIVersion is the highest API version supported by this server.
	CurrentAPIVersion = APIVersion1
)

// APICapabilities describes the features available at each API version.
var APICapabilities = map[int][]string{
	APIVersion1: {
		"list",
		"lookup",
		"select",
		"custom",
		"sandbox",
		"reset",
	},
}

// StatusResponse is the response from the /status endpoint.
type StatusResponse struct {
	Status       string   `json:"status"`
	Service      string   `json:"service"`
	APIVersion   int      `json:"api_version"`
	Capabilities []string `json:"capabilities,omitempty"`
	Error        string   `json:"error,omitempty"`
}
