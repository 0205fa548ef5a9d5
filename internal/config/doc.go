// Package config provides file-based settings for nameloc.
//
// Settings live in a versioned YAML file that follows OS-specific
// conventions for its location:
//   - Linux: $XDG_CONFIG_HOME/nameloc/config.yaml or $HOME/.config/nameloc/config.yaml
//   - macOS: $HOME/.config/nameloc/config.yaml
//   - Windows: %LOCALAPPDATA%\nameloc\config.yaml
//
// A missing file is not an error: Load returns Defaults(). Keys left out of
// the file keep their default values, so a file can be as small as:
//
//	version: 1
//	api:
//	  url: http://127.0.0.1:8080
//
// Command-line flags override file values; that layering is done by the
// caller.
//
// # Usage Example
//
//	settings, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	dir := settings.NewMockDirectory()
//
// # Thread Safety
//
// Load and Save are serialized by a package mutex. Save writes atomically
// (temporary file + rename).
package config
