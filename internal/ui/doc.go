// Package ui renders styled output for the non-interactive nameloc commands.
//
// Commands such as locations, check, and scan print their result once and
// exit. A Printer draws the same boxes for all of them:
//
//   - PrintHeader: command banner with its parameters
//   - PrintSuccess / PrintWarning: result box with ordered details
//   - PrintFailure: error box with troubleshooting tips
//   - Confirm: warning box and typed confirmation before a destructive step
//
// Box width follows the terminal (golang.org/x/term), clamped to
// MinTerminalWidth..MaxContentWidth; output that is not a terminal uses the
// minimum.
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Name Check", "nameloc check alice", ui.D("Directory", url))
//	p.PrintSuccess("Name available", ui.D("Name", "alice"))
//
// Logging stays silent unless NAMELOC_LOG_LEVEL or --log-level is set, so
// zap output does not interleave with the boxes.
package ui
