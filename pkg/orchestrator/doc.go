// Package orchestrator wires configuration into the estimator, the history
// store, the page renderers and the HTTP server, providing a single entry
// point for the CLI and for embedding applications.
package orchestrator
