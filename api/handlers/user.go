package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/rules"
)

// User exported for testing purposes
type User struct {
	DB       databases.UserDatabase
	CarDB    databases.CarDatabase
	MaintDB  databases.MaintenanceDatabase
	ProjDB   databases.ProjectDatabase
	DBHelper databases.DatabaseHelper
	Rules    *rules.Rules
}

// UserHandler returns a user by ID, readable by that user or an admin
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	principal := api.PrincipalFromContext(r.Context())
	if !u.Rules.CanAccessUser(principal, userID) {
		config.DeniedStatus(w)
		return
	}

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(r.Context(), bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
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

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserHandler updates a user's display name and email, by that user or
// an admin
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	principal := api.PrincipalFromContext(r.Context())
	if !u.Rules.CanAccessUser(principal, userID) {
		config.DeniedStatus(w)
		return
	}

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.Email != "" {
		email := strings.TrimSpace(strings.ToLower(req.Email))
		// only an admin may move the admin sentinel email onto an account
		if u.Rules.IsAdminEmail(email) && !u.Rules.IsAdmin(principal) {
			config.DeniedStatus(w)
			return
		}
		existing, _ := u.DB.FindOne(r.Context(), bson.M{"email": email, "_id": bson.M{"$ne": uID}})
		if existing != nil {
			config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
			return
		}
		update["email"] = email
		// the stored flag and the rules predicate read the same sentinel
		update["admin"] = u.Rules.IsAdminEmail(email)
	}

	if _, err := u.DB.UpdateOne(r.Context(), bson.M{"_id": uID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User updated successfully",
	})
}

// DeleteUserHandler deletes a user and every car, maintenance record and
// project they own, in a single transaction. Events they organize are left
// in place with an orphaned organizer reference.
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	principal := api.PrincipalFromContext(r.Context())
	if !u.Rules.CanAccessUser(principal, userID) {
		config.DeniedStatus(w)
		return
	}

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	if _, err := u.DB.FindOne(r.Context(), bson.M{"_id": uID}); err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	session, err := u.DBHelper.Client().StartSession()
	if err != nil {
		config.ErrorStatus("failed to start session", http.StatusInternalServerError, w, err)
		return
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(r.Context(), func(sc mongo.SessionContext) (interface{}, error) {
		ownedFilter := bson.M{"ownerID": userID}
		if _, err := u.CarDB.DeleteMany(sc, ownedFilter); err != nil {
			return nil, fmt.Errorf("failed to delete cars: %w", err)
		}
		if _, err := u.MaintDB.DeleteMany(sc, ownedFilter); err != nil {
			return nil, fmt.Errorf("failed to delete maintenance records: %w", err)
		}
		if _, err := u.ProjDB.DeleteMany(sc, ownedFilter); err != nil {
			return nil, fmt.Errorf("failed to delete projects: %w", err)
		}
		if _, err := u.DB.DeleteOne(sc, bson.M{"_id": uID}); err != nil {
			return nil, fmt.Errorf("failed to delete user: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		config.ErrorStatus("failed to delete user and owned data", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User and owned data deleted successfully",
	})
}
