// internal/domain/notification/record.go
package notification

import (
	"database/sql"
	"time"
)

// Kind tells what triggered an outbound message.
type Kind string

const (
	KindStatusChange Kind = "STATUS_CHANGE" // homework verdict changed
	KindError        Kind = "ERROR"         // recoverable polling error, deduplicated
	KindFatal        Kind = "FATAL"         // the loop stops after this one
)

// Record is one outbound notification attempt.
// Corresponds to the 'notification_journal' table.
type Record struct {
	ID            int64
	Kind          Kind
	ChatID        string
	Text          string
	Delivered     bool
	DeliveryError sql.NullString // Set when the bot refused or failed the send
	CreatedAt     time.Time
}
