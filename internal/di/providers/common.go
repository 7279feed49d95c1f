// Package providers contains dependency injection providers for the Shelfmark server.
package providers

import "time"

// shutdownTimeout is the maximum time allowed for graceful shutdown of a
// single component.
const shutdownTimeout = 30 * time.Second
