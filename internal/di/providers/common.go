// Package providers contains the constructor functions registered with the
// dependency injection container, plus handle types that tie long-running
// components into the container's shutdown sequence.
package providers

import "time"

// shutdownTimeout bounds how long any single component may take to stop.
const shutdownTimeout = 30 * time.Second
