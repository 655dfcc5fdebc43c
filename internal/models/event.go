package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Event describes a community event that users can like, attend and comment on
type Event struct {
	// ID is a millisecond timestamp on the device store and a UUID on the remote store
	ID string `db:"id" json:"id"`
	// Title of the event
	Title string `db:"title" json:"title" validate:"required,max=200"`
	// A longer description of what will happen
	Description string `db:"description" json:"description" validate:"required"`
	// Day of the event in the format YYYY-MM-DD
	Date string `db:"date" json:"date" validate:"required,date"`
	// Start time in the format HH:MM
	Time string `db:"time" json:"time" validate:"required,clock"`
	// Optional end time in the format HH:MM
	EndTime string `db:"end_time" json:"endTime,omitempty" validate:"omitempty,clock"`
	// Where the event takes place
	Location string `db:"location" json:"location" validate:"required"`
	// One of the configured categories
	Category string `db:"category" json:"category" validate:"required"`
	// Link to a cover image (optional)
	ImageURL string `db:"image_url" json:"imageUrl,omitempty" validate:"omitempty,url"`
	// Entry price - 0 means free
	Price float64 `db:"price" json:"price" validate:"gte=0"`
	// Display name of the organizer
	OrganizerName string `db:"organizer_name" json:"organizerName"`
	// ID of the user that created the event
	CreatedBy string `db:"created_by" json:"createdBy"`
	// Points an attendee earns when the attendance is confirmed
	Points int `db:"points" json:"points" validate:"gte=0"`
	// Number of likes - always equal to len(LikedBy) after a recount
	Likes int `db:"likes" json:"likes"`
	// IDs of the users liking this event
	LikedBy IDList `db:"liked_by" json:"likedBy"`
	// IDs of the users attending this event
	Attendees IDList `db:"attendees" json:"attendees"`
	// Comments, oldest first
	Comments []Comment `db:"-" json:"comments"`
	// Creation date of this entry
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// ApplyChanges copies the user-editable fields of other into the event. Counters, ownership and comments stay as
// they are
func (e *Event) ApplyChanges(other *Event) {
	e.Title = other.Title
	e.Description = other.Description
	e.Date = other.Date
	e.Time = other.Time
	e.EndTime = other.EndTime
	e.Location = other.Location
	e.Category = other.Category
	e.ImageURL = other.ImageURL
	e.Price = other.Price
	e.OrganizerName = other.OrganizerName
	e.Points = other.Points
}

// Comment is a text comment written by a user on an event
type Comment struct {
	ID               string    `db:"id" json:"id"`
	EventID          string    `db:"event_id" json:"eventId"`
	UserID           string    `db:"user_id" json:"userId"`
	UserName         string    `db:"user_name" json:"userName"`
	UserProfileImage string    `db:"user_profile_image" json:"userProfileImage,omitempty"`
	Content          string    `db:"content" json:"content"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// IDList is a list of user IDs that is stored as a JSON array inside a single database column
type IDList []string

// Contains checks if the given ID is part of the list
func (l IDList) Contains(id string) bool {
	for _, item := range l {
		if item == id {
			return true
		}
	}
	return false
}

// With returns a list that contains the given ID exactly once
func (l IDList) With(id string) IDList {
	if l.Contains(id) {
		return l
	}
	return append(l, id)
}

// Without returns a list that does not contain the given ID
func (l IDList) Without(id string) IDList {
	ret := IDList{}
	for _, item := range l {
		if item != id {
			ret = append(ret, item)
		}
	}
	return ret
}

// Value implements driver.Valuer
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *IDList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = IDList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("IDList: cannot scan value of type %T", src)
	}
	if len(data) == 0 {
		*l = IDList{}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return errors.Wrap(err, "IDList: malformed JSON array")
	}
	*l = IDList(ids)
	return nil
}
