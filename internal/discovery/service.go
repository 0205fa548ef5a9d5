package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service is a directory server found on the local network
type Service struct {
	// Instance is the advertised instance name (e.g., "nameloc directory")
	Instance string

	// Host is the mDNS hostname (e.g., "build-box.local.")
	Host string

	// IP is the preferred address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data
	// Common fields: "path=/api/v1", "version=v0.3.0", "scheme=https"
	Metadata map[string]string

	// DiscoveredAt is when the service was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Host, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// BaseURL returns the server root URL. Directory clients append API paths
// to it.
func (s *Service) BaseURL() string {
	scheme := s.GetMetadata("scheme")
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
