package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
)

// SharedProject is the minimal projection of a project exposed through a
// share link.
type SharedProject struct {
	ID   string `gorm:"column:id" json:"id"`
	Name string `gorm:"column:name" json:"name"`
}

// SharedFile is one row of the backend file-listing procedure. Its shape
// belongs to the backend, so it is passed through untouched.
type SharedFile = datatypes.JSON

// SharedProjectView is the body of a successful share resolution.
type SharedProjectView struct {
	Project SharedProject `json:"project"`
	Files   []SharedFile  `json:"files"`
}

// Share access outcomes recorded in the audit trail.
const (
	ShareOutcomeResolved    = "resolved"
	ShareOutcomeInvalid     = "invalid"
	ShareOutcomeFilesFailed = "files_failed"
)

// ShareAccess is one audit entry per share-link resolution. The raw token
// is never stored; TokenHash is a SHA-256 prefix.
type ShareAccess struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TokenHash  string             `bson:"token_hash" json:"token_hash"`
	ProjectID  string             `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Outcome    string             `bson:"outcome" json:"outcome"`
	FileCount  int                `bson:"file_count" json:"file_count"`
	ClientIP   string             `bson:"client_ip,omitempty" json:"client_ip,omitempty"`
	RequestID  string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	AccessedAt time.Time          `bson:"accessed_at" json:"accessed_at"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
