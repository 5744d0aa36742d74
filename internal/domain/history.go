package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type HistoryType string

const (
	HistoryCreated  HistoryType = "CREATED"
	HistoryUpdated  HistoryType = "UPDATED"
	HistoryReopened HistoryType = "REOPENED"
	HistoryVerified HistoryType = "VERIFIED"
	HistoryClosed   HistoryType = "CLOSED"
	HistoryDonation HistoryType = "DONATION"
)

// HistoryEntry is one immutable audit record of a request state transition.
// Entries are only ever appended, never mutated or deleted.
type HistoryEntry struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	RequestID     string         `json:"request_id" db:"request_id"`
	Type          HistoryType    `json:"type" db:"type"`
	ActorName     string         `json:"actor_name" db:"actor_name"`
	ActorUID      string         `json:"actor_uid" db:"actor_uid"`
	Note          string         `json:"note" db:"note"`
	ChangedFields pq.StringArray `json:"changed_fields,omitempty" db:"changed_fields"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}
