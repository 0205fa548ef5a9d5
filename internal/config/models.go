package config

import (
	"fmt"
	"time"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/roster"
)

// CurrentVersion is the only settings file version understood.
const CurrentVersion = 1

// Transport names accepted in api.transport
const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

// Settings represents the entire configuration file.
type Settings struct {
	Version int            `yaml:"version"`
	API     APISettings    `yaml:"api"`
	Form    FormSettings   `yaml:"form"`
	Server  ServerSettings `yaml:"server"`
	Mock    MockSettings   `yaml:"mock"`
	Log     LogSettings    `yaml:"log"`
}

// APISettings configures how the form reaches the directory.
type APISettings struct {
	URL             string        `yaml:"url,omitempty"`   // Empty = in-process mock directory
	Transport       string        `yaml:"transport"`       // "http" or "ws"
	Timeout         time.Duration `yaml:"timeout"`         // Per-request timeout
	Retries         int           `yaml:"retries"`         // Retry attempts for retryable failures
	CacheTTL        time.Duration `yaml:"cache_ttl"`       // Name-check cache lifetime (0 disables)
	Discover        bool          `yaml:"discover"`        // Find the directory via mDNS when URL is empty
	DiscoverTimeout time.Duration `yaml:"discover_timeout"` // mDNS browse timeout
}

// FormSettings configures the interactive form.
type FormSettings struct {
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a name is checked
}

// ServerSettings configures the mock directory server.
type ServerSettings struct {
	Host      string `yaml:"host"`      // Empty = all interfaces
	Port      int    `yaml:"port"`      // Listen port
	Advertise bool   `yaml:"advertise"` // Announce via mDNS
}

// MockSettings seeds the mock directory (in-process or served).
type MockSettings struct {
	Locations  []string      `yaml:"locations"`
	TakenNames []string      `yaml:"taken_names"`
	Latency    time.Duration `yaml:"latency"` // Simulated round-trip
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `yaml:"level,omitempty"` // Empty = silent
	File  string `yaml:"file,omitempty"`  // Empty = <config dir>/nameloc.log for the form
}

// Defaults returns a Settings populated with default values.
func Defaults() *Settings {
	locations := make([]string, 0, len(directory.DefaultLocations))
	for _, loc := range directory.DefaultLocations {
		locations = append(locations, string(loc))
	}

	return &Settings{
		Version: CurrentVersion,
		API: APISettings{
			Transport:       TransportHTTP,
			Timeout:         directory.DefaultTimeout,
			Retries:         directory.DefaultMaxRetries,
			CacheTTL:        directory.DefaultCacheDuration,
			DiscoverTimeout: 3 * time.Second,
		},
		Form: FormSettings{
			Debounce: 500 * time.Millisecond,
		},
		Server: ServerSettings{
			Port: 8080,
		},
		Mock: MockSettings{
			Locations:  locations,
			TakenNames: []string{directory.DefaultTakenName},
			Latency:    250 * time.Millisecond,
		},
	}
}

// Validate checks the settings for values the application cannot use.
func (s *Settings) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", s.Version, CurrentVersion)
	}

	switch s.API.Transport {
	case TransportHTTP, TransportWebSocket:
	default:
		return fmt.Errorf("invalid api.transport %q (expected %q or %q)", s.API.Transport, TransportHTTP, TransportWebSocket)
	}

	if s.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative, got %d", s.API.Retries)
	}
	if s.API.Timeout < 0 || s.API.CacheTTL < 0 || s.API.DiscoverTimeout < 0 {
		return fmt.Errorf("api durations must not be negative")
	}
	if s.Form.Debounce <= 0 {
		return fmt.Errorf("form.debounce must be positive, got %v", s.Form.Debounce)
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0-65535, got %d", s.Server.Port)
	}
	if s.Mock.Latency < 0 {
		return fmt.Errorf("mock.latency must not be negative")
	}

	return nil
}

// MockLocations returns the configured mock locations as roster locations.
func (s *Settings) MockLocations() []roster.Location {
	out := make([]roster.Location, 0, len(s.Mock.Locations))
	for _, loc := range s.Mock.Locations {
		out = append(out, roster.Location(loc))
	}
	return out
}

// NewMockDirectory builds the in-process mock directory described by the
// mock section.
func (s *Settings) NewMockDirectory() *directory.Memory {
	m := directory.NewMemory(s.MockLocations(), s.Mock.TakenNames)
	m.Latency = s.Mock.Latency
	return m
}
