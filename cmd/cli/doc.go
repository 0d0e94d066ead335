// Package cli constructs the orgsync command-line interface, wiring the Cobra
// command hierarchy, the layered configuration loader and structured logging.
package cli
