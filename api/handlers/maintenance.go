package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

const defaultUpcomingWindowDays = 30

// Maintenance exported for testing purposes. Now is injectable so the
// upcoming-window query can be pinned in tests.
type Maintenance struct {
	DB    databases.MaintenanceDatabase
	Rules *rules.Rules
	Now   func() time.Time
}

// MaintenanceListHandler returns the maintenance records visible to the
// principal, newest-created-first
func (m Maintenance) MaintenanceListHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	filter := bson.M{"ownerID": principal.ID}
	if m.Rules.IsAdmin(principal) {
		filter = bson.M{}
	}

	dbResp, err := m.DB.Find(r.Context(), filter, options.Find().SetSort(newestFirst))
	if err != nil {
		config.ErrorStatus("failed to get maintenance records", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Maintenance{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpcomingMaintenanceHandler returns the principal's incomplete records whose
// nextDueDate falls inside the next N days (default 30)
func (m Maintenance) UpcomingMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = defaultUpcomingWindowDays
	}

	now := m.Now()
	windowEnd := now.Add(time.Duration(days) * 24 * time.Hour)
	zap.S().Debugf("upcoming window: %v to %v", now, windowEnd)

	filter := bson.M{
		"ownerID":   principal.ID,
		"completed": false,
		"nextDueDate": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now),
			"$lte": primitive.NewDateTimeFromTime(windowEnd),
		},
	}

	dbResp, err := m.DB.Find(r.Context(), filter, options.Find().SetSort(bson.D{{Key: "nextDueDate", Value: 1}}))
	if err != nil {
		config.ErrorStatus("failed to get upcoming maintenance", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Maintenance{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MaintenanceByIDHandler returns a maintenance record by ID
func (m Maintenance) MaintenanceByIDHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := m.DB.FindOne(r.Context(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get maintenance record by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.CanAccessOwned(principal, dbResp.OwnerID) {
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

// CreateMaintenanceHandler creates a maintenance record owned by the
// principal. The referenced car is not checked for existence; a dangling
// carID is tolerated throughout.
func (m Maintenance) CreateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	var record models.Maintenance
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !record.Type.IsValid() {
		config.ErrorStatus("invalid maintenance type", http.StatusBadRequest, w, fmt.Errorf("unknown type %q", record.Type))
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if record.OwnerID == "" {
		record.OwnerID = principal.ID
	}
	if !m.Rules.CanCreateOwned(principal, record.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	record.ID = primitive.NewObjectID()
	record.CreatedAt = primitive.NewDateTimeFromTime(m.Now())
	record.UpdatedAt = record.CreatedAt

	if _, err := m.DB.InsertOne(r.Context(), record); err != nil {
		config.ErrorStatus("failed to create maintenance record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Maintenance record created successfully",
		"id":      record.ID.Hex(),
	})
}

// UpdateMaintenanceHandler updates a maintenance record's details
func (m Maintenance) UpdateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := m.DB.FindOne(r.Context(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get maintenance record by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	var record models.Maintenance
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !record.Type.IsValid() {
		config.ErrorStatus("invalid maintenance type", http.StatusBadRequest, w, fmt.Errorf("unknown type %q", record.Type))
		return
	}

	update := bson.M{
		"carID":           record.CarID,
		"type":            record.Type,
		"description":     record.Description,
		"date":            record.Date,
		"mileage":         record.Mileage,
		"cost":            record.Cost,
		"serviceProvider": record.ServiceProvider,
		"notes":           record.Notes,
		"nextDueDate":     record.NextDueDate,
		"nextDueMileage":  record.NextDueMileage,
		"completed":       record.Completed,
		"updatedAt":       primitive.NewDateTimeFromTime(m.Now()),
	}

	if _, err := m.DB.UpdateOne(r.Context(), bson.M{"_id": rID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update maintenance record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Maintenance record updated successfully",
	})
}

// ToggleCompletedHandler flips the completed flag on a maintenance record
func (m Maintenance) ToggleCompletedHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := m.DB.FindOne(r.Context(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get maintenance record by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	update := bson.M{
		"completed": !existing.Completed,
		"updatedAt": primitive.NewDateTimeFromTime(m.Now()),
	}
	if _, err := m.DB.UpdateOne(r.Context(), bson.M{"_id": rID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update maintenance record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "Maintenance record updated successfully",
		"completed": !existing.Completed,
	})
}

// DeleteMaintenanceHandler deletes a maintenance record by ID
func (m Maintenance) DeleteMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["record_id"]

	rID, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := m.DB.FindOne(r.Context(), bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get maintenance record by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !m.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	if _, err := m.DB.DeleteOne(r.Context(), bson.M{"_id": rID}); err != nil {
		config.ErrorStatus("failed to delete maintenance record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Maintenance record deleted successfully",
	})
}
