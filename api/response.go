package api

// ResponseType represents a valid response type.
type ResponseType string

// Response types.
const (
	SyncResponse  ResponseType = "sync"
	ErrorResponse ResponseType = "error"
)

// StatusCode represents a status code for a response.
type StatusCode int

// Status codes.
const (
	Success StatusCode = 200
	Failure StatusCode = 400
)

// String returns a suitable description of the status code.
func (c StatusCode) String() string {
	if c == Success {
		return "Success"
	}

	return "Failure"
}

// ResponseRaw represents a REST API response envelope.
type ResponseRaw struct {
	Type ResponseType `json:"type" yaml:"type"`

	// Valid only for sync responses.
	Status     string `json:"status"      yaml:"status"`
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Metadata   any    `json:"metadata"    yaml:"metadata"`

	// Valid only for error responses.
	Code  int    `json:"error_code" yaml:"error_code"`
	Error string `json:"error"      yaml:"error"`
}

// Daemon represents the root level daemon information.
type Daemon struct {
	Name       string `json:"name"        yaml:"name"`
	Version    string `json:"version"     yaml:"version"`
	APIVersion string `json:"api_version" yaml:"api_version"`
}
