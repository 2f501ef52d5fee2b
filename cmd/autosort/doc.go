// Package main hosts the autosort CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: run drives the pipeline, history reads the journal,
// check runs preflight probes and config scaffolds or validates the TOML
// file. Keep this package thin and add behavior to internal packages first.
package main
