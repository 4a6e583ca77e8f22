package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

// Event exported for testing purposes
type Event struct {
	DB    databases.EventDatabase
	Rules *rules.Rules
}

// soonestFirst orders event listings soonest-date-first
var soonestFirst = bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}

// EventsHandler returns the general events view: all public events, plus
// private ones for an admin
func (e Event) EventsHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	filter := bson.M{"isPublic": true}
	if e.Rules.IsAdmin(principal) {
		filter = bson.M{}
	}

	dbResp, err := e.DB.Find(r.Context(), filter, options.Find().SetSort(soonestFirst))
	if err != nil {
		config.ErrorStatus("failed to get events", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Event{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MyEventsHandler returns the events the principal organizes, regardless of
// visibility
func (e Event) MyEventsHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	dbResp, err := e.DB.Find(r.Context(), bson.M{"organizer.id": principal.ID}, options.Find().SetSort(soonestFirst))
	if err != nil {
		config.ErrorStatus("failed to get events", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Event{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// EventByIDHandler returns an event by ID. A private event the principal may
// not see yields a denial, not a not-found.
func (e Event) EventByIDHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := e.DB.FindOne(r.Context(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.CanReadEvent(principal, dbResp) {
		config.DeniedStatus(w)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateEventHandler creates an event organized by the principal. The
// payload must carry the full required-field list, checked on literal JSON
// keys before decoding.
func (e Event) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		config.ErrorStatus("failed to read request body", http.StatusBadRequest, w, err)
		return
	}

	if err := rules.ValidateEventCreate(body); err != nil {
		config.ErrorStatus("invalid event payload", http.StatusBadRequest, w, err)
		return
	}

	var event models.Event
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&event); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !event.Category.IsValid() {
		config.ErrorStatus("invalid event category", http.StatusBadRequest, w, fmt.Errorf("unknown category %q", event.Category))
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.CanCreateEvent(principal, &event) {
		config.DeniedStatus(w)
		return
	}

	event.ID = primitive.NewObjectID()
	if event.Participants == nil {
		event.Participants = []string{}
	}
	event.CurrentParticipants = len(event.Participants)
	event.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	event.UpdatedAt = event.CreatedAt

	if _, err := e.DB.InsertOne(r.Context(), event); err != nil {
		config.ErrorStatus("failed to create event", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Event created successfully",
		"id":      event.ID.Hex(),
	})
}

// UpdateEventHandler updates an event's core fields. The participant set is
// not writable here; join/leave is the only path that touches it.
func (e Event) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := e.DB.FindOne(r.Context(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.CanWriteEvent(principal, existing) {
		config.DeniedStatus(w)
		return
	}

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !event.Category.IsValid() {
		config.ErrorStatus("invalid event category", http.StatusBadRequest, w, fmt.Errorf("unknown category %q", event.Category))
		return
	}

	update := bson.M{
		"title":           event.Title,
		"description":     event.Description,
		"location":        event.Location,
		"date":            event.Date,
		"time":            event.Time,
		"isPublic":        event.IsPublic,
		"category":        event.Category,
		"tags":            event.Tags,
		"maxParticipants": event.MaxParticipants,
		"contactInfo":     event.ContactInfo,
		"requirements":    event.Requirements,
		"updatedAt":       primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := e.DB.UpdateOne(r.Context(), bson.M{"_id": eID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update event", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Event updated successfully",
	})
}

// DeleteEventHandler deletes an event by ID
func (e Event) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := e.DB.FindOne(r.Context(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.CanWriteEvent(principal, existing) {
		config.DeniedStatus(w)
		return
	}

	if _, err := e.DB.DeleteOne(r.Context(), bson.M{"_id": eID}); err != nil {
		config.ErrorStatus("failed to delete event", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Event deleted successfully",
	})
}

// JoinEventHandler adds the principal to a public event's participant set.
// The participant array and count are replaced together in one update,
// guarded by a compare-and-swap on the array that was read; a lost race is a
// conflict the client may retry. The count can never drift from the array.
func (e Event) JoinEventHandler(w http.ResponseWriter, r *http.Request) {
	e.toggleParticipation(w, r, true)
}

// LeaveEventHandler removes the principal from a public event's participant
// set with the same compare-and-swap discipline as join
func (e Event) LeaveEventHandler(w http.ResponseWriter, r *http.Request) {
	e.toggleParticipation(w, r, false)
}

func (e Event) toggleParticipation(w http.ResponseWriter, r *http.Request, join bool) {
	eventID := mux.Vars(r)["event_id"]

	eID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := e.DB.FindOne(r.Context(), bson.M{"_id": eID})
	if err != nil {
		config.ErrorStatus("failed to get event by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !e.Rules.CanToggleParticipation(principal, existing) {
		config.DeniedStatus(w)
		return
	}

	var participants []string
	if join {
		if existing.HasParticipant(principal.ID) {
			config.ErrorStatus("already joined", http.StatusConflict, w, fmt.Errorf("user %s is already a participant", principal.ID))
			return
		}
		if existing.IsFull() {
			config.ErrorStatus("event is full", http.StatusConflict, w, fmt.Errorf("participant cap %d reached", existing.MaxParticipants))
			return
		}
		participants = append(append([]string{}, existing.Participants...), principal.ID)
	} else {
		if !existing.HasParticipant(principal.ID) {
			config.ErrorStatus("not a participant", http.StatusConflict, w, fmt.Errorf("user %s has not joined", principal.ID))
			return
		}
		participants = make([]string, 0, len(existing.Participants))
		for _, id := range existing.Participants {
			if id != principal.ID {
				participants = append(participants, id)
			}
		}
	}

	set := bson.M{
		"participants":        participants,
		"currentParticipants": len(participants),
		"updatedAt":           primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := rules.ValidateParticipationUpdate(map[string]interface{}(set)); err != nil {
		config.ErrorStatus("invalid participation update", http.StatusInternalServerError, w, err)
		return
	}

	// The filter pins the participant array to the one just read; a
	// concurrent join/leave makes MatchedCount zero instead of clobbering.
	filter := bson.M{"_id": eID, "participants": existing.Participants}
	res, err := e.DB.UpdateOne(r.Context(), filter, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update participation", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("event changed, retry", http.StatusConflict, w, fmt.Errorf("concurrent participation update"))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":             "Participation updated successfully",
		"currentParticipants": len(participants),
	})
}
