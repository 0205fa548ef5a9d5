package form

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/roster"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// name is checked.
const DefaultDebounce = 500 * time.Millisecond

// User-facing messages
const (
	ValidatingMessage     = "validating name..."
	TakenMessage          = "this name has already been taken"
	CheckFailedMessage    = "could not check name"
	LocationsFailedPrefix = "could not load locations"
	NoLocationsMessage    = "no locations available"
)

// Options configures a Model.
type Options struct {
	// Debounce is the trailing-edge delay before a name check (default 500ms)
	Debounce time.Duration
}

// focus identifies which control receives keys
type focus int

const (
	focusName focus = iota
	focusLocation
)

// Messages for async operations
type locationsLoadedMsg struct {
	locations []roster.Location
	err       error
}

type debounceMsg struct {
	seq uint64
}

type nameCheckedMsg struct {
	seq   uint64
	name  string
	valid bool
	err   error
}

// scope ties in-flight lookups to the model's lifetime. It is shared by
// every copy of a Model, so closing it from any copy affects them all.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

func newScope() *scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &scope{ctx: ctx, cancel: cancel}
}

func (s *scope) close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
	}
}

// Model is the name/location form: a debounced name field checked against
// the directory, a location selector, and the table of added records.
type Model struct {
	dir      directory.Directory
	debounce time.Duration
	scope    *scope

	// Name field and validation
	name      textinput.Model
	inputSeq  uint64
	gate      GateState
	message   string
	confirmed string

	// Location selector
	locations    []roster.Location
	selected     int // -1 when unset
	loadingLocs  bool
	locationsErr error

	records roster.Roster
	focus   focus

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	keys    keyMap
}

// New creates a form backed by dir
func New(dir directory.Directory, opts Options) Model {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	nameInput := textinput.New()
	nameInput.Placeholder = "name"
	nameInput.Prompt = ""
	nameInput.Width = 32
	nameInput.Focus()

	return Model{
		dir:         dir,
		debounce:    opts.Debounce,
		scope:       newScope(),
		name:        nameInput,
		gate:        GateInvalid,
		selected:    -1,
		loadingLocs: true,
		Spinner:     s,
		Help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the location fetch
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchLocations(),
		textinput.Blink,
		m.Spinner.Tick,
	)
}

// Close cancels in-flight lookups. Results that arrive afterwards are
// dropped. Safe to call more than once.
func (m Model) Close() {
	m.scope.close()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case locationsLoadedMsg:
		if m.scope.closed.Load() {
			return m, nil
		}
		m.applyLocations(msg)
		return m, nil

	case debounceMsg:
		if m.scope.closed.Load() {
			return m, nil
		}
		return m.settle(msg)

	case nameCheckedMsg:
		if m.scope.closed.Load() {
			logging.Debug("Dropping name check after teardown", zap.String("name", msg.name))
			return m, nil
		}
		m.applyCheck(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		m.Add()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.Clear()
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		return m.retry()

	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusName {
			m.focus = focusLocation
			m.name.Blur()
			return m, nil
		}
		m.focus = focusName
		return m, m.name.Focus()
	}

	if m.focus == focusLocation {
		switch {
		case key.Matches(msg, m.keys.Prev):
			m.SelectLocation(m.selected - 1)
		case key.Matches(msg, m.keys.Next):
			m.SelectLocation(m.selected + 1)
		}
		return m, nil
	}

	before := m.name.Value()
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	if m.name.Value() == before {
		return m, cmd
	}

	return m, tea.Batch(cmd, m.nameChanged())
}

// nameChanged closes the gate and restarts the debounce window for the
// current buffer
func (m *Model) nameChanged() tea.Cmd {
	m.inputSeq++
	m.gate = GatePending
	m.confirmed = ""
	if m.name.Value() == "" {
		m.message = ""
	} else {
		m.message = ValidatingMessage
	}
	m.syncKeys()
	return m.scheduleCheck(m.inputSeq)
}

// settle runs when a debounce window closes. Only the window opened by the
// latest keystroke issues a check.
func (m Model) settle(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.inputSeq {
		return m, nil
	}

	value := m.name.Value()
	if value == "" {
		m.gate = GateInvalid
		m.message = ""
		m.syncKeys()
		return m, nil
	}

	m.gate = GateValidating
	m.message = ValidatingMessage
	m.syncKeys()
	return m, m.checkName(msg.seq, value)
}

func (m *Model) applyCheck(msg nameCheckedMsg) {
	if msg.seq != m.inputSeq {
		logging.Debug("Discarding stale name check",
			zap.String("name", msg.name),
			zap.Uint64("seq", msg.seq),
			zap.Uint64("current_seq", m.inputSeq),
		)
		return
	}

	switch {
	case msg.err != nil:
		m.gate = GateFailed
		m.message = CheckFailedMessage + ": " + directory.ShortMessage(msg.err)
	case msg.valid:
		m.gate = GateValid
		m.confirmed = msg.name
		m.message = ""
	default:
		m.gate = GateInvalid
		m.message = TakenMessage
	}
	m.syncKeys()
}

func (m *Model) applyLocations(msg locationsLoadedMsg) {
	m.loadingLocs = false
	m.locationsErr = msg.err

	if msg.err != nil {
		m.locations = nil
		m.selected = -1
		m.syncKeys()
		return
	}

	m.locations = msg.locations
	if len(m.locations) > 0 {
		m.selected = 0
	} else {
		m.selected = -1
	}
	m.syncKeys()
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.locationsErr != nil && !m.loadingLocs {
		m.locationsErr = nil
		m.loadingLocs = true
		cmds = append(cmds, m.fetchLocations())
	}

	if m.gate == GateFailed {
		m.gate = GateValidating
		m.message = ValidatingMessage
		cmds = append(cmds, m.checkName(m.inputSeq, m.name.Value()))
	}

	m.syncKeys()
	return m, tea.Batch(cmds...)
}

// syncKeys enables bindings that only make sense in the current state
func (m *Model) syncKeys() {
	m.keys.Retry.SetEnabled(m.gate == GateFailed || (m.locationsErr != nil && !m.loadingLocs))
}

// Add appends the confirmed name at the selected location. It does nothing
// while the gate is closed or no location is selected.
func (m *Model) Add() {
	if !m.CanAdd() {
		return
	}

	rec := roster.Record{Name: m.confirmed, Location: m.locations[m.selected]}
	m.records.Add(rec)
	logging.Debug("Record added",
		zap.String("name", rec.Name),
		zap.String("location", string(rec.Location)),
		zap.Int("records", m.records.Len()),
	)
}

// Clear removes every record
func (m *Model) Clear() {
	m.records.Clear()
}

// SelectLocation selects the location at index i, clamped to the list
func (m *Model) SelectLocation(i int) {
	if len(m.locations) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m.locations) {
		i = len(m.locations) - 1
	}
	m.selected = i
}

// CanAdd reports whether Add would append a record
func (m Model) CanAdd() bool {
	return m.gate.Open() && m.selected >= 0 && m.selected < len(m.locations)
}

// Gate returns the current gate state
func (m Model) Gate() GateState {
	return m.gate
}

// Message returns the validation or error message shown under the name field
func (m Model) Message() string {
	return m.message
}

// Name returns the current name buffer
func (m Model) Name() string {
	return m.name.Value()
}

// Locations returns the fetched locations
func (m Model) Locations() []roster.Location {
	return m.locations
}

// SelectedLocation returns the selected location, if any
func (m Model) SelectedLocation() (roster.Location, bool) {
	if m.selected < 0 || m.selected >= len(m.locations) {
		return "", false
	}
	return m.locations[m.selected], true
}

// Records returns the added records in order
func (m Model) Records() []roster.Record {
	return m.records.Records()
}

// fetchLocations is a command that loads the location list
func (m Model) fetchLocations() tea.Cmd {
	dir, sc := m.dir, m.scope
	return func() tea.Msg {
		locations, err := dir.Locations(sc.ctx)
		return locationsLoadedMsg{locations: locations, err: err}
	}
}

// scheduleCheck opens a debounce window tagged with seq
func (m Model) scheduleCheck(seq uint64) tea.Cmd {
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

// checkName is a command that asks the directory about name
func (m Model) checkName(seq uint64, name string) tea.Cmd {
	dir, sc := m.dir, m.scope
	return func() tea.Msg {
		valid, err := dir.CheckName(sc.ctx, name)
		return nameCheckedMsg{seq: seq, name: name, valid: valid, err: err}
	}
}
