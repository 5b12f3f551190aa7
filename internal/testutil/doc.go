// Package testutil holds fluent builders for sessions and events so tests
// across the pipeline packages can set up fixtures without boilerplate.
// Not for production use.
package testutil
