package form

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/roster"
)

// newLoadedModel returns a form whose location fetch has completed against mem
func newLoadedModel(t *testing.T, mem *directory.Memory) Model {
	t.Helper()
	m := New(mem, Options{Debounce: 10 * time.Millisecond})
	t.Cleanup(m.Close)
	return update(t, m, m.fetchLocations()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func backspace(t *testing.T, m Model) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
}

// settleNow closes the current debounce window and runs the resulting check,
// if any, returning the model after the check result is applied
func settleNow(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := updateCmd(t, m, debounceMsg{seq: m.inputSeq})
	if cmd == nil {
		return m
	}
	return update(t, m, cmd())
}

func newMemory() *directory.Memory {
	return directory.NewMemory([]roster.Location{"NYC", "SF"}, []string{"bob"})
}

func TestNew_InitialState(t *testing.T) {
	m := New(newMemory(), Options{})
	defer m.Close()

	if m.Gate() != GateInvalid {
		t.Errorf("Gate() = %v, want INVALID", m.Gate())
	}
	if m.Message() != "" {
		t.Errorf("Message() = %q, want empty", m.Message())
	}
	if m.CanAdd() {
		t.Error("CanAdd() should be false before anything happens")
	}
	if _, ok := m.SelectedLocation(); ok {
		t.Error("no location should be selected before the fetch completes")
	}
	if m.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", m.debounce, DefaultDebounce)
	}
	if m.Init() == nil {
		t.Error("Init() should start the location fetch")
	}
}

func TestLocations_SelectFirst(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	loc, ok := m.SelectedLocation()
	if !ok || loc != "NYC" {
		t.Errorf("SelectedLocation() = %q, %v; want NYC, true", loc, ok)
	}
	if diff := cmp.Diff([]roster.Location{"NYC", "SF"}, m.Locations()); diff != "" {
		t.Errorf("Locations() mismatch (-want +got):\n%s", diff)
	}
	if mem.LocationCalls() != 1 {
		t.Errorf("LocationCalls() = %d, want 1", mem.LocationCalls())
	}
}

func TestLocations_EmptyLeavesSelectionUnset(t *testing.T) {
	mem := directory.NewMemory(nil, nil)
	m := newLoadedModel(t, mem)

	if _, ok := m.SelectedLocation(); ok {
		t.Error("empty location list should leave the selection unset")
	}

	m = typeText(t, m, "alice")
	m = settleNow(t, m)

	if m.Gate() != GateValid {
		t.Fatalf("Gate() = %v, want VALID", m.Gate())
	}
	if m.CanAdd() {
		t.Error("CanAdd() should be false without a location")
	}
	m.Add()
	if len(m.Records()) != 0 {
		t.Errorf("Add() without a location appended %v", m.Records())
	}
	if !strings.Contains(m.View(), NoLocationsMessage) {
		t.Error("View() should say no locations are available")
	}
}

func TestLocations_FailureAndRetry(t *testing.T) {
	mem := newMemory()
	mem.FailLocations(errors.New("backend down"))
	m := newLoadedModel(t, mem)

	if _, ok := m.SelectedLocation(); ok {
		t.Error("failed fetch should leave the selection unset")
	}
	if !errors.Is(m.locationsErr, directory.ErrLocationFetchFailed) {
		t.Errorf("locationsErr = %v, want ErrLocationFetchFailed", m.locationsErr)
	}
	if !strings.Contains(m.View(), LocationsFailedPrefix) {
		t.Error("View() should show the location failure")
	}

	mem.FailLocations(nil)
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatal("retry should re-issue the location fetch")
	}
	if !m.loadingLocs {
		t.Error("retry should mark locations as loading")
	}
	m = update(t, m, m.fetchLocations()())

	loc, ok := m.SelectedLocation()
	if !ok || loc != "NYC" {
		t.Errorf("SelectedLocation() after retry = %q, %v; want NYC, true", loc, ok)
	}
	if mem.LocationCalls() != 2 {
		t.Errorf("LocationCalls() = %d, want 2", mem.LocationCalls())
	}
}

func TestKeystroke_OpensPendingWindow(t *testing.T) {
	m := newLoadedModel(t, newMemory())

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if cmd == nil {
		t.Fatal("keystroke should schedule a debounce tick")
	}
	if m.Gate() != GatePending {
		t.Errorf("Gate() = %v, want PENDING", m.Gate())
	}
	if m.Message() != ValidatingMessage {
		t.Errorf("Message() = %q, want %q", m.Message(), ValidatingMessage)
	}
	if m.Name() != "a" {
		t.Errorf("Name() = %q, want a", m.Name())
	}
}

func TestScheduleCheck_DeliversTaggedTick(t *testing.T) {
	m := New(newMemory(), Options{Debounce: time.Millisecond})
	defer m.Close()

	msg := m.scheduleCheck(42)()
	tick, ok := msg.(debounceMsg)
	if !ok || tick.seq != 42 {
		t.Errorf("scheduleCheck() delivered %#v, want debounceMsg{seq: 42}", msg)
	}
}

// Scenario: type "alice", wait, check returns true, Add with location "SF"
func TestValidNameThenAdd(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "alice")
	m = settleNow(t, m)

	if m.Gate() != GateValid {
		t.Fatalf("Gate() = %v, want VALID", m.Gate())
	}
	if m.Message() != "" {
		t.Errorf("Message() = %q, want empty", m.Message())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if loc, _ := m.SelectedLocation(); loc != "SF" {
		t.Fatalf("SelectedLocation() = %q, want SF", loc)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	want := []roster.Record{{Name: "alice", Location: "SF"}}
	if diff := cmp.Diff(want, m.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.View(), "alice") {
		t.Error("View() should list the added record")
	}
}

// Scenario: type "bob", wait, check returns false
func TestTakenName(t *testing.T) {
	m := newLoadedModel(t, newMemory())

	m = typeText(t, m, "bob")
	m = settleNow(t, m)

	if m.Gate() != GateInvalid {
		t.Errorf("Gate() = %v, want INVALID", m.Gate())
	}
	if m.Message() != TakenMessage {
		t.Errorf("Message() = %q, want %q", m.Message(), TakenMessage)
	}
	if m.CanAdd() {
		t.Error("CanAdd() should be false for a taken name")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.Records()) != 0 {
		t.Errorf("Add with a taken name appended %v", m.Records())
	}
}

// Long names reach the directory untruncated and are added whole
func TestLongName_NotTruncated(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	long := strings.Repeat("abcdefghij", 10)
	m = typeText(t, m, long)
	if got := m.Name(); got != long {
		t.Fatalf("Name() has %d characters, want %d", len(got), len(long))
	}

	m = settleNow(t, m)
	if diff := cmp.Diff([]string{long}, mem.CheckedNames()); diff != "" {
		t.Errorf("CheckedNames() mismatch (-want +got):\n%s", diff)
	}
	if m.Gate() != GateValid {
		t.Fatalf("Gate() = %v, want VALID", m.Gate())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	want := []roster.Record{{Name: long, Location: "NYC"}}
	if diff := cmp.Diff(want, m.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
}

// Scenario: type "a", then "ab" within the window; only "ab" is checked
func TestDebounce_OnlyLatestValueChecked(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "a")
	firstSeq := m.inputSeq
	m = typeText(t, m, "b")

	m, cmd := updateCmd(t, m, debounceMsg{seq: firstSeq})
	if cmd != nil {
		t.Error("superseded debounce window should not issue a check")
	}
	if m.Gate() != GatePending {
		t.Errorf("Gate() = %v, want PENDING", m.Gate())
	}

	m = settleNow(t, m)

	if diff := cmp.Diff([]string{"ab"}, mem.CheckedNames()); diff != "" {
		t.Errorf("CheckedNames() mismatch (-want +got):\n%s", diff)
	}
	if m.Gate() != GateValid {
		t.Errorf("Gate() = %v, want VALID", m.Gate())
	}
}

// Scenario: one row present, Clear empties the table
func TestClear(t *testing.T) {
	m := newLoadedModel(t, newMemory())
	m = typeText(t, m, "alice")
	m = settleNow(t, m)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.Records()) != 1 {
		t.Fatalf("Records() = %v, want one record", m.Records())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.Records()) != 0 {
		t.Errorf("Records() after clear = %v, want none", m.Records())
	}

	// Clearing again is a no-op
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.Records()) != 0 {
		t.Errorf("Records() after second clear = %v, want none", m.Records())
	}
}

// Scenario: Add twice without touching the name; no second check
func TestAddTwice_NoRecheck(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)
	m = typeText(t, m, "alice")
	m = settleNow(t, m)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	want := []roster.Record{
		{Name: "alice", Location: "NYC"},
		{Name: "alice", Location: "NYC"},
	}
	if diff := cmp.Diff(want, m.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
	if len(mem.CheckedNames()) != 1 {
		t.Errorf("CheckedNames() = %v, want exactly one check", mem.CheckedNames())
	}
}

func TestEmptyBuffer_NoCheck(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "a")
	m = backspace(t, m)

	if m.Name() != "" {
		t.Fatalf("Name() = %q, want empty", m.Name())
	}
	if m.Gate() != GatePending {
		t.Errorf("Gate() = %v, want PENDING", m.Gate())
	}
	if m.Message() != "" {
		t.Errorf("Message() = %q, want empty for an empty buffer", m.Message())
	}

	m = settleNow(t, m)

	if m.Gate() != GateInvalid {
		t.Errorf("Gate() = %v, want INVALID", m.Gate())
	}
	if m.Message() != "" {
		t.Errorf("Message() = %q, empty input must not show the taken message", m.Message())
	}
	if len(mem.CheckedNames()) != 0 {
		t.Errorf("CheckedNames() = %v, empty input must not reach the directory", mem.CheckedNames())
	}
}

func TestKeystrokeAfterValid_ClosesGate(t *testing.T) {
	m := newLoadedModel(t, newMemory())
	m = typeText(t, m, "alice")
	m = settleNow(t, m)
	if !m.CanAdd() {
		t.Fatal("CanAdd() should be true after a valid check")
	}

	m = typeText(t, m, "x")
	if m.CanAdd() {
		t.Error("CanAdd() should be false once the name changes")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.Records()) != 0 {
		t.Errorf("Add during the pending window appended %v", m.Records())
	}
}

// A check issued for an older name resolves after a newer keystroke
func TestStaleCheckDiscarded(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "alice")
	m, checkAlice := updateCmd(t, m, debounceMsg{seq: m.inputSeq})
	if checkAlice == nil {
		t.Fatal("expected a check for alice")
	}
	if m.Gate() != GateValidating {
		t.Fatalf("Gate() = %v, want VALIDATING", m.Gate())
	}

	// The user keeps typing; "alicex" is taken
	mem.SetTaken("alicex", true)
	m = typeText(t, m, "x")
	m = settleNow(t, m)
	if m.Gate() != GateInvalid || m.Message() != TakenMessage {
		t.Fatalf("Gate() = %v, Message() = %q; want INVALID/taken", m.Gate(), m.Message())
	}

	// The older "alice" answer (valid) lands last and must not reopen the gate
	m = update(t, m, checkAlice())

	if m.Gate() != GateInvalid {
		t.Errorf("Gate() = %v, stale check should be discarded", m.Gate())
	}
	if m.Message() != TakenMessage {
		t.Errorf("Message() = %q, want %q", m.Message(), TakenMessage)
	}
	if m.CanAdd() {
		t.Error("CanAdd() should stay false")
	}
}

func TestCheckFailureAndRetry(t *testing.T) {
	mem := newMemory()
	mem.FailChecks(errors.New("registry offline"))
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "alice")
	m = settleNow(t, m)

	if m.Gate() != GateFailed {
		t.Fatalf("Gate() = %v, want FAILED", m.Gate())
	}
	if !strings.HasPrefix(m.Message(), CheckFailedMessage) {
		t.Errorf("Message() = %q, want prefix %q", m.Message(), CheckFailedMessage)
	}
	if m.Message() == TakenMessage {
		t.Error("failure must be distinct from the taken message")
	}
	if m.CanAdd() {
		t.Error("CanAdd() should be false after a failed check")
	}

	mem.FailChecks(nil)
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatal("retry should re-issue the check")
	}
	if m.Gate() != GateValidating {
		t.Errorf("Gate() = %v, want VALIDATING", m.Gate())
	}
	m = update(t, m, cmd())

	if m.Gate() != GateValid {
		t.Errorf("Gate() after retry = %v, want VALID", m.Gate())
	}
	if diff := cmp.Diff([]string{"alice", "alice"}, mem.CheckedNames()); diff != "" {
		t.Errorf("CheckedNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestRetryDisabledWithoutFailure(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)
	m = typeText(t, m, "alice")
	m = settleNow(t, m)

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd != nil {
		t.Error("retry with nothing failed should do nothing")
	}
	if len(mem.CheckedNames()) != 1 {
		t.Errorf("CheckedNames() = %v, want one check", mem.CheckedNames())
	}
}

func TestTeardown_DiscardsLateResults(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)
	m = typeText(t, m, "alice")
	m, check := updateCmd(t, m, debounceMsg{seq: m.inputSeq})
	if check == nil {
		t.Fatal("expected a check command")
	}

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("quit key should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should return tea.Quit")
	}

	m = update(t, m, check())

	if m.Gate() != GateValidating {
		t.Errorf("Gate() = %v, results after teardown must be ignored", m.Gate())
	}
	if m.Message() != ValidatingMessage {
		t.Errorf("Message() = %q, results after teardown must be ignored", m.Message())
	}
}

func TestTeardown_CancelsInFlightLookup(t *testing.T) {
	mem := newMemory()
	mem.Latency = time.Hour
	m := New(mem, Options{})

	done := make(chan tea.Msg, 1)
	go func() { done <- m.checkName(1, "alice")() }()

	m.Close()
	m.Close() // idempotent

	select {
	case msg := <-done:
		checked, ok := msg.(nameCheckedMsg)
		if !ok || checked.err == nil {
			t.Errorf("lookup returned %#v, want a cancellation error", msg)
		}
		if !errors.Is(checked.err, context.Canceled) && !errors.Is(checked.err, directory.ErrNameCheckFailed) {
			t.Errorf("err = %v, want a canceled name check", checked.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not abort the in-flight lookup")
	}
}

func TestLocationSelection(t *testing.T) {
	mem := directory.NewMemory([]roster.Location{"A", "B", "C"}, nil)
	m := newLoadedModel(t, mem)

	// Arrow keys go to the name field until the selector has focus
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if loc, _ := m.SelectedLocation(); loc != "A" {
		t.Errorf("SelectedLocation() = %q, want A while the name field has focus", loc)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	steps := []struct {
		key  tea.KeyType
		want roster.Location
	}{
		{tea.KeyRight, "B"},
		{tea.KeyDown, "C"},
		{tea.KeyRight, "C"}, // clamped
		{tea.KeyLeft, "B"},
		{tea.KeyUp, "A"},
		{tea.KeyUp, "A"}, // clamped
	}
	for _, step := range steps {
		m = update(t, m, tea.KeyMsg{Type: step.key})
		if loc, _ := m.SelectedLocation(); loc != step.want {
			t.Errorf("after %v: SelectedLocation() = %q, want %q", step.key, loc, step.want)
		}
	}

	// Typing while the selector is focused leaves the name alone
	m = typeText(t, m, "zz")
	if m.Name() != "" {
		t.Errorf("Name() = %q, runes should not reach the name field", m.Name())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "zz")
	if m.Name() != "zz" {
		t.Errorf("Name() = %q, want zz after switching focus back", m.Name())
	}
}

func TestWindowSize(t *testing.T) {
	m := newLoadedModel(t, newMemory())
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if m.Width != 100 || m.Height != 30 {
		t.Errorf("size = %dx%d, want 100x30", m.Width, m.Height)
	}
	if m.View() == "" {
		t.Error("View() should render")
	}
}

func TestView_Messages(t *testing.T) {
	mem := newMemory()
	m := newLoadedModel(t, mem)

	m = typeText(t, m, "bob")
	if !strings.Contains(m.View(), ValidatingMessage) {
		t.Error("View() should show the validating message while pending")
	}

	m = settleNow(t, m)
	if !strings.Contains(m.View(), TakenMessage) {
		t.Error("View() should show the taken message")
	}
}
