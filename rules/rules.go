// Package rules is the single enforcement point for the authorization
// predicate family. Every handler consults these predicates before touching
// the store, so there is exactly one rendition of the policy in the process.
package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/garagehub/garagehub-api/models"
)

// EventCreateRequiredFields is the closed, literal field list an event-create
// payload must carry. Requests missing any of these are rejected even when
// the submitter is the designated organizer.
var EventCreateRequiredFields = []string{
	"title", "description", "location", "date", "time", "organizer",
	"participants", "currentParticipants", "category", "isPublic", "tags",
	"createdAt", "updatedAt",
}

// ParticipationFields is the only field set a join/leave write may touch
var ParticipationFields = map[string]bool{
	"participants":        true,
	"currentParticipants": true,
	"updatedAt":           true,
}

// Rules evaluates (principal, entity, operation) triples. The admin sentinel
// email is injected once from config so the stored admin flag and this
// predicate can never diverge.
type Rules struct {
	adminEmail string
}

// New returns a Rules evaluator bound to the given admin sentinel email
func New(adminEmail string) *Rules {
	return &Rules{adminEmail: strings.ToLower(adminEmail)}
}

// IsAuthenticated is true iff the principal is non-nil
func (r *Rules) IsAuthenticated(p *models.Principal) bool {
	return p != nil
}

// IsAdmin is true iff the principal is authenticated and carries the admin
// sentinel email
func (r *Rules) IsAdmin(p *models.Principal) bool {
	return r.IsAuthenticated(p) && r.IsAdminEmail(p.Email)
}

// IsAdminEmail reports whether the given email is the admin sentinel. The
// stored admin flag on user documents is stamped from this same check.
func (r *Rules) IsAdminEmail(email string) bool {
	return r.adminEmail != "" && strings.EqualFold(email, r.adminEmail)
}

// IsOwner is true iff the principal is authenticated and owns the entity
func (r *Rules) IsOwner(p *models.Principal, ownerID string) bool {
	return r.IsAuthenticated(p) && ownerID == p.ID
}

// IsOrganizer is true iff the principal is authenticated and organizes the
// event
func (r *Rules) IsOrganizer(p *models.Principal, e *models.Event) bool {
	return r.IsAuthenticated(p) && e != nil && e.Organizer.ID == p.ID
}

// CanCreateOwned decides create for cars, maintenance records and projects:
// the new entity's ownerID must equal the principal's id
func (r *Rules) CanCreateOwned(p *models.Principal, ownerID string) bool {
	return r.IsOwner(p, ownerID)
}

// CanAccessOwned decides read, update and delete for cars, maintenance
// records and projects: owner or admin
func (r *Rules) CanAccessOwned(p *models.Principal, ownerID string) bool {
	return r.IsOwner(p, ownerID) || r.IsAdmin(p)
}

// CanAccessUser decides read, update and delete of a user document: self or
// admin
func (r *Rules) CanAccessUser(p *models.Principal, userID string) bool {
	return (r.IsAuthenticated(p) && p.ID == userID) || r.IsAdmin(p)
}

// CanCreateEvent decides event creation: authenticated and the payload's
// organizer id must equal the principal's id
func (r *Rules) CanCreateEvent(p *models.Principal, e *models.Event) bool {
	return r.IsAuthenticated(p) && e != nil && e.Organizer.ID == p.ID
}

// CanReadEvent decides event reads: public, organizer, or admin
func (r *Rules) CanReadEvent(p *models.Principal, e *models.Event) bool {
	if !r.IsAuthenticated(p) || e == nil {
		return false
	}
	return e.IsPublic || r.IsOrganizer(p, e) || r.IsAdmin(p)
}

// CanWriteEvent decides update/delete of event core fields: organizer or
// admin
func (r *Rules) CanWriteEvent(p *models.Principal, e *models.Event) bool {
	return r.IsOrganizer(p, e) || r.IsAdmin(p)
}

// CanToggleParticipation decides the join/leave path: any authenticated
// principal, provided the event is public
func (r *Rules) CanToggleParticipation(p *models.Principal, e *models.Event) bool {
	return r.IsAuthenticated(p) && e != nil && e.IsPublic
}

// ValidateEventCreate checks the raw create payload against the required
// field list. The comparison is on literal JSON keys, not decoded values.
func ValidateEventCreate(body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}
	var missing []string
	for _, f := range EventCreateRequiredFields {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("event payload missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateParticipationUpdate verifies a join/leave update document touches
// no fields outside the participation set
func ValidateParticipationUpdate(set map[string]interface{}) error {
	for field := range set {
		if !ParticipationFields[field] {
			return fmt.Errorf("participation update may not touch field %q", field)
		}
	}
	return nil
}
