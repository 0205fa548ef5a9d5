// Package logging provides structured logging for nameloc.
//
// This package wraps a zap logger with package-level convenience functions
// plus a few domain helpers for directory lookups and served requests.
//
// # Log Levels
//
//   - Debug: cache hits, retries, dropped websocket frames, stale checks
//   - Info: server lifecycle, served requests, records added
//   - Warn: failed lookups
//   - Error: startup failures
//
// # Silent by default
//
// Nothing is logged unless a level is given, either explicitly or through
// the NAMELOC_LOG_LEVEL environment variable.
//
// # Output
//
// The directory server logs to stdout. The form TUI draws on the terminal,
// so interactive sessions log to a file instead:
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level: "debug",
//	    File:  "/home/me/.config/nameloc/nameloc.log",
//	}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once the logger has
// been initialized.
package logging
