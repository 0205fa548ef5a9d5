// Package urls provides centralized constants for the directory API routes
// shared by the server and its clients.
//
// Usage:
//
//	import "github.com/muurk/nameloc/internal/urls"
//
//	resp, err := http.Get(baseURL + urls.LocationsPath)
package urls
