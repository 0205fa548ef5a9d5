// Package directory talks to the remote collaborator that supplies the
// selectable locations and decides whether a name is still available.
//
// # Implementations
//
//   - Memory: in-process mock with configurable data, latency and failures
//   - Client: HTTP/JSON client with retries, backoff and a name-check cache
//   - WSClient: persistent WebSocket channel; requests are correlated by id
//
// All implementations satisfy Directory and honor context cancellation, so
// callers can abandon a lookup when the form is torn down.
//
// # Errors
//
// Failures are reported as *Error. Every error carries the operation that
// failed, which lets callers tell the two failure kinds apart:
//
//	locs, err := dir.Locations(ctx)
//	if errors.Is(err, directory.ErrLocationFetchFailed) {
//	    // show a retry affordance
//	}
//
//	ok, err := dir.CheckName(ctx, "alice")
//	if errors.Is(err, directory.ErrNameCheckFailed) {
//	    // distinct from "name taken"; keep Add disabled
//	}
package directory
