// Package cli defines the Cobra command tree for the datakit CLI. Each file
// in this package registers one top-level command (generate, inspect,
// preprocess, etc.) with the root command. Command implementations delegate
// to internal packages for the work and only handle flag parsing, output
// formatting, and logging.
package cli
