package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventCategory is the closed set of event categories
type EventCategory string

// Event categories
const (
	CategoryMeetup   EventCategory = "meetup"
	CategoryShow     EventCategory = "show"
	CategoryTrackDay EventCategory = "track_day"
	CategoryCruise   EventCategory = "cruise"
	CategoryWorkshop EventCategory = "workshop"
	CategoryOtherEv  EventCategory = "other"
)

// IsValid reports whether c is one of the known categories
func (c EventCategory) IsValid() bool {
	switch c {
	case CategoryMeetup, CategoryShow, CategoryTrackDay, CategoryCruise,
		CategoryWorkshop, CategoryOtherEv:
		return true
	}
	return false
}

// Organizer identifies the principal that created an event. The reference is
// not cascaded on user deletion, so ID may point at a user that no longer
// exists.
type Organizer struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

// Event holds the structure for the events collection in mongo.
// CurrentParticipants must equal len(Participants) at all times; the two are
// only ever written together in a single update.
type Event struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title               string             `json:"title" bson:"title"`
	Description         string             `json:"description" bson:"description"`
	Location            string             `json:"location" bson:"location"`
	Date                primitive.DateTime `json:"date" bson:"date"`
	Time                string             `json:"time" bson:"time"`
	Organizer           Organizer          `json:"organizer" bson:"organizer"`
	IsPublic            bool               `json:"isPublic" bson:"isPublic"`
	Participants        []string           `json:"participants" bson:"participants"`
	CurrentParticipants int                `json:"currentParticipants" bson:"currentParticipants"`
	Category            EventCategory      `json:"category" bson:"category"`
	Tags                []string           `json:"tags" bson:"tags"`
	MaxParticipants     int                `json:"maxParticipants,omitempty" bson:"maxParticipants,omitempty"`
	ContactInfo         string             `json:"contactInfo,omitempty" bson:"contactInfo,omitempty"`
	Requirements        string             `json:"requirements,omitempty" bson:"requirements,omitempty"`
	CreatedAt           primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt           primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// HasParticipant reports whether the given user id is in the participant set
func (e *Event) HasParticipant(userID string) bool {
	for _, id := range e.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the event has reached its participant cap.
// MaxParticipants of zero means unlimited.
func (e *Event) IsFull() bool {
	return e.MaxParticipants > 0 && e.CurrentParticipants >= e.MaxParticipants
}
