// Package tables registers the source layouts with the core registry.
// Import this package to ensure all definitions are registered.
package tables

// Definition keys.
const (
	Wines  = "wines"
	Videos = "videos"
)
