// Package form implements the name/location entry form as a Bubble Tea model.
//
// The form owns every piece of mutable state: the fetched locations, the
// records added so far, the name buffer, the validation message, and the
// add gate. Two lookups run against a directory.Directory: the location
// list, fetched once at startup, and a name check issued after the name
// field has been quiet for the debounce period.
//
// # Add Gate
//
//	keystroke          -> PENDING     (gate closed, "validating name..." if non-empty)
//	debounce, empty    -> INVALID     (no lookup, message cleared)
//	debounce, name     -> VALIDATING  (one CheckName call)
//	check valid        -> VALID       (gate open, name confirmed)
//	check taken        -> INVALID     ("this name has already been taken")
//	check error        -> FAILED      (gate closed, ctrl+r retries)
//
// Every keystroke bumps an input sequence. Debounce ticks and check results
// carry the sequence they were issued for and are dropped unless it is still
// current, so a slow answer for an old name never overwrites a newer one.
//
// # Teardown
//
// Quitting closes the model's scope: the context passed to in-flight lookups
// is canceled, and any result delivered afterwards is ignored. Hosts that
// stop the program another way should call Close themselves.
//
// # Usage Example
//
//	m := form.New(directory.NewDefaultMemory(), form.Options{})
//	defer m.Close()
//	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
//	    log.Fatal(err)
//	}
package form
