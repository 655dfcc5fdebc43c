package models

import "time"

// InteractionKind is the type of relationship between a user and an event
type InteractionKind string

const (
	// InteractionLike marks that a user likes an event
	InteractionLike InteractionKind = "like"
	// InteractionAttend marks that a user will attend an event
	InteractionAttend InteractionKind = "attend"
)

// Valid checks if the kind is one of the known interaction kinds
func (k InteractionKind) Valid() bool {
	return k == InteractionLike || k == InteractionAttend
}

// Interaction is a single (event, user, kind) relationship as stored by the remote store
type Interaction struct {
	EventID   string          `db:"event_id" json:"eventId"`
	UserID    string          `db:"user_id" json:"userId"`
	Kind      InteractionKind `db:"interaction_type" json:"type"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Counters are the denormalized aggregates stored on an event
type Counters struct {
	Likes     int
	LikedBy   IDList
	Attendees IDList
}

// InteractionState tells whether a single user likes or attends an event
type InteractionState struct {
	Liked     bool `json:"liked"`
	Attending bool `json:"attending"`
}

// PointsEntry records the points a user earned for attending an event
type PointsEntry struct {
	UserID    string    `db:"user_id" json:"userId"`
	EventID   string    `db:"event_id" json:"eventId"`
	Points    int       `db:"points" json:"points"`
	AwardedAt time.Time `db:"awarded_at" json:"awardedAt"`
}
