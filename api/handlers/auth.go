package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

// Auth handles registration and session inspection
type Auth struct {
	DB     databases.UserDatabase
	Config *config.Config
	Rules  *rules.Rules
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterHandler creates a user from an email/password/name triple. A user
// registering the admin sentinel email is stamped as admin; the stored flag
// and the rules predicate read the same configured value.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" || req.Name == "" {
		config.ErrorStatus("email, password and name are required", http.StatusBadRequest, w, fmt.Errorf("missing fields"))
		return
	}

	// check if the user already exists
	existingUser, _ := a.DB.FindOne(context.Background(), bson.M{"email": email})
	if existingUser != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      req.Name,
		Password:  string(hashedPassword),
		Admin:     a.Rules.IsAdminEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := a.DB.InsertOne(context.Background(), user); err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User created successfully",
		"id":      user.ID.Hex(),
	})
}

// SessionHandler returns the current principal for a presented token. Clients
// call this at startup to restore a session.
func (a Auth) SessionHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !a.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	uID, err := primitive.ObjectIDFromHex(principal.ID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	user, err := a.DB.FindOne(r.Context(), bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
