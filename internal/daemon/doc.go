// Package daemon assembles and runs the taggerd process: the model
// registry, the inference gate, the queue manager, the optional history
// store, and the HTTP API server, under a single-instance file lock.
package daemon
