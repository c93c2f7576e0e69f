// internal/domain/notification/journal.go
package notification

import "context"

// Journal keeps a write-only history of notification attempts.
// The polling loop never reads it back.
type Journal interface {
	Record(ctx context.Context, r *Record) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
