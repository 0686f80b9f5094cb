// Package sentinel holds infrastructure error facts shared by sinks, relays
// and stores. Ledger rule violations use pkg/domain-errors instead.
package sentinel

import "errors"

// ErrUnavailable marks a downstream dependency (Redis, Kafka) that could not
// be reached. Callers wrap it next to the driver error.
var ErrUnavailable = errors.New("unavailable")
