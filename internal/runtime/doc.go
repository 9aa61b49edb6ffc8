// Package runtime wires configuration, the Pebble backend, and the store
// into a single-node stratum instance. The CLI and embedding applications
// go through Runtime instead of assembling the pieces by hand.
package runtime
