package urls

// APIPrefix is the common prefix for all directory API routes.
const APIPrefix = "/api/v1"

// LocationsPath returns the ordered list of selectable locations.
const LocationsPath = APIPrefix + "/locations"

// NameCheckPath reports whether a candidate name is still available.
// The candidate is passed in the NameParam query parameter.
const NameCheckPath = APIPrefix + "/names/check"

// NameParam is the query parameter carrying the candidate name.
const NameParam = "name"

// WebSocketPath upgrades to the persistent request/response channel.
const WebSocketPath = APIPrefix + "/ws"

// HealthPath is a plain liveness check.
const HealthPath = "/healthz"

// MetricsPath exposes Prometheus metrics.
const MetricsPath = "/metrics"
