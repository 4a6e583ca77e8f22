package handlers

import (
	"encoding/json"
	"fmt"
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

// Project exported for testing purposes
type Project struct {
	DB    databases.ProjectDatabase
	Rules *rules.Rules
}

// ProjectsHandler returns the projects visible to the principal,
// newest-created-first
func (p Project) ProjectsHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !p.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	filter := bson.M{"ownerID": principal.ID}
	if p.Rules.IsAdmin(principal) {
		filter = bson.M{}
	}

	dbResp, err := p.DB.Find(r.Context(), filter, options.Find().SetSort(newestFirst))
	if err != nil {
		config.ErrorStatus("failed to get projects", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Project{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ProjectByIDHandler returns a project by ID
func (p Project) ProjectByIDHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["project_id"]

	pID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := p.DB.FindOne(r.Context(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get project by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !p.Rules.CanAccessOwned(principal, dbResp.OwnerID) {
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

// CreateProjectHandler creates a project owned by the principal
func (p Project) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !project.Priority.IsValid() {
		config.ErrorStatus("invalid project priority", http.StatusBadRequest, w, fmt.Errorf("unknown priority %q", project.Priority))
		return
	}
	if !project.Status.IsValid() {
		config.ErrorStatus("invalid project status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", project.Status))
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if project.OwnerID == "" {
		project.OwnerID = principal.ID
	}
	if !p.Rules.CanCreateOwned(principal, project.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	project.ID = primitive.NewObjectID()
	project.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	project.UpdatedAt = project.CreatedAt

	if _, err := p.DB.InsertOne(r.Context(), project); err != nil {
		config.ErrorStatus("failed to create project", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Project created successfully",
		"id":      project.ID.Hex(),
	})
}

// UpdateProjectHandler updates a project's details
func (p Project) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["project_id"]

	pID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := p.DB.FindOne(r.Context(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get project by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !p.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !project.Priority.IsValid() {
		config.ErrorStatus("invalid project priority", http.StatusBadRequest, w, fmt.Errorf("unknown priority %q", project.Priority))
		return
	}
	if !project.Status.IsValid() {
		config.ErrorStatus("invalid project status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", project.Status))
		return
	}

	update := bson.M{
		"carID":         project.CarID,
		"title":         project.Title,
		"description":   project.Description,
		"priority":      project.Priority,
		"status":        project.Status,
		"estimatedCost": project.EstimatedCost,
		"actualCost":    project.ActualCost,
		"startDate":     project.StartDate,
		"targetDate":    project.TargetDate,
		"completedDate": project.CompletedDate,
		"notes":         project.Notes,
		"updatedAt":     primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := p.DB.UpdateOne(r.Context(), bson.M{"_id": pID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update project", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Project updated successfully",
	})
}

// DeleteProjectHandler deletes a project by ID
func (p Project) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["project_id"]

	pID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := p.DB.FindOne(r.Context(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get project by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !p.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	if _, err := p.DB.DeleteOne(r.Context(), bson.M{"_id": pID}); err != nil {
		config.ErrorStatus("failed to delete project", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Project deleted successfully",
	})
}
