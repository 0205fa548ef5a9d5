package directory

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/nameloc/internal/roster"
)

// DefaultTakenName is the one name the stock mock directory reports as taken.
const DefaultTakenName = "invalid name"

// DefaultLocations is the stock location list served by the mock directory.
var DefaultLocations = []roster.Location{"Canada", "China", "USA", "Brazil"}

// Memory is an in-process Directory. It backs the form when no remote API is
// configured and serves as the data source of the mock directory server.
type Memory struct {
	// Latency delays every call, simulating a network round-trip.
	Latency time.Duration

	mu            sync.Mutex
	locations     []roster.Location
	taken         map[string]bool
	locationsErr  error
	checkErr      error
	locationCalls int
	checkedNames  []string
}

// NewMemory creates a Memory directory. A nil taken list marks nothing as
// taken.
func NewMemory(locations []roster.Location, taken []string) *Memory {
	m := &Memory{
		locations: append([]roster.Location(nil), locations...),
		taken:     make(map[string]bool, len(taken)),
	}
	for _, name := range taken {
		m.taken[name] = true
	}
	return m
}

// NewDefaultMemory returns the stock mock directory.
func NewDefaultMemory() *Memory {
	return NewMemory(DefaultLocations, []string{DefaultTakenName})
}

// Locations implements Directory
func (m *Memory) Locations(ctx context.Context) ([]roster.Location, error) {
	if err := m.wait(ctx); err != nil {
		return nil, classifyTransportError(OpFetchLocations, "location fetch abandoned", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.locationCalls++
	if m.locationsErr != nil {
		return nil, &Error{
			Op:        OpFetchLocations,
			Type:      ErrTypeUnavailable,
			Message:   "locations unavailable",
			Err:       m.locationsErr,
			Retryable: true,
		}
	}
	return append([]roster.Location(nil), m.locations...), nil
}

// CheckName implements Directory
func (m *Memory) CheckName(ctx context.Context, name string) (bool, error) {
	if err := m.wait(ctx); err != nil {
		return false, classifyTransportError(OpCheckName, "name check abandoned", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkedNames = append(m.checkedNames, name)
	if m.checkErr != nil {
		return false, &Error{
			Op:        OpCheckName,
			Type:      ErrTypeUnavailable,
			Message:   "name check unavailable",
			Err:       m.checkErr,
			Retryable: true,
		}
	}
	return !m.taken[name], nil
}

// SetTaken marks or unmarks a name as taken.
func (m *Memory) SetTaken(name string, taken bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if taken {
		m.taken[name] = true
	} else {
		delete(m.taken, name)
	}
}

// FailLocations makes subsequent Locations calls fail with err (nil clears).
func (m *Memory) FailLocations(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locationsErr = err
}

// FailChecks makes subsequent CheckName calls fail with err (nil clears).
func (m *Memory) FailChecks(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkErr = err
}

// LocationCalls returns how many times Locations completed.
func (m *Memory) LocationCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locationCalls
}

// CheckedNames returns the names passed to CheckName, in call order.
func (m *Memory) CheckedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.checkedNames...)
}

func (m *Memory) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Latency <= 0 {
		return nil
	}

	timer := time.NewTimer(m.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
