// Package domain holds the login attempt record.
package domain

import "time"

// Record is one authentication attempt. Records are append-only: they are
// never updated and only removed by the retention sweeper, never by the core.
type Record struct {
	Email     string
	Success   bool
	IP        string
	UserAgent string
	At        time.Time
}
