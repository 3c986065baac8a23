// Package ports defines the interfaces (ports) that external adapters must implement.
// The workflow engine reaches the record store, the mail transport and the
// outbound HTTP client only through these interfaces so tests can swap in
// in-memory or mock implementations.
package ports
