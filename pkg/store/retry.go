// retry.go provides retry logic for transient SQLite errors.
//
// sem writes its snapshot from a single process, but the database may
// be held open by an inspection tool (sqlite3 shell, a viewer) while a
// run finishes. The busy_timeout pragma handles SQLITE_BUSY at the
// connection level; this wrapper covers the error codes that slip past
// it.
package store

import (
	"strings"
	"time"
)

const (
	retryAttempts = 3
	retryBaseWait = 50 * time.Millisecond
)

// isTransientSQLiteErr reports whether the error is worth retrying:
// SQLITE_BUSY (5), SQLITE_LOCKED (6), or the textual "database is
// locked" fallthrough from modernc.org/sqlite.
func isTransientSQLiteErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"database is locked",
		"database table is locked",
		"(5)",
		"(6)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// retryOnBusy executes fn, retrying transient errors with linear
// backoff. Non-transient errors return immediately.
func retryOnBusy(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isTransientSQLiteErr(lastErr) {
			return lastErr
		}
		if attempt < retryAttempts {
			time.Sleep(retryBaseWait * time.Duration(attempt+1))
		}
	}
	return lastErr
}
