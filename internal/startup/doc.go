// Package startup owns process bring-up: environment configuration
// with validation and defaults, the startup banner and system
// information dump, and the structured startup/shutdown log phases.
package startup
