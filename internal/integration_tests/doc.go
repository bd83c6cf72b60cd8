// Package integration_tests holds end-to-end tests that drive the
// application through grid files, the HTTP surface and the event sinks.
// Each subdirectory groups one area of behavior.
package integration_tests
