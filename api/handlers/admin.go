package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
	Admin struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"admin"`
}

// Admin represents the admin handler
type Admin struct {
	UDB     databases.UserDatabase
	CarDB   databases.CarDatabase
	MaintDB databases.MaintenanceDatabase
	ProjDB  databases.ProjectDatabase
	EventDB databases.EventDatabase
	Config  *config.Config
	Rules   *rules.Rules
}

// AdminLoginHandler handles admin login via email/password and returns a JWT.
// Only the sentinel admin email can pass; the same predicate the rest of the
// API consults decides it.
func (h Admin) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email and password required"})
		return
	}

	if !h.Rules.IsAdminEmail(email) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	admin, err := h.UDB.FindOne(r.Context(), bson.M{"email": email})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	claims := jwt.MapClaims{
		"sub":   admin.ID.Hex(),
		"email": admin.Email,
		"scope": "admin",
		"typ":   "access",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.Config.JWTSecret))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "token generation failed"})
		return
	}

	var resp adminLoginResponse
	resp.Token = signed
	resp.Admin.ID = admin.ID.Hex()
	resp.Admin.Email = admin.Email

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

type adminStats struct {
	Users       int64            `json:"users"`
	Cars        int64            `json:"cars"`
	Maintenance int64            `json:"maintenance"`
	Projects    int64            `json:"projects"`
	Events      int64            `json:"events"`
	CarsByOwner map[string]int64 `json:"carsByOwner"`
}

// StatsHandler returns aggregate collection counts for the admin dashboard
func (h Admin) StatsHandler(w http.ResponseWriter, r *http.Request) {
	var stats adminStats
	var err error

	if stats.Users, err = h.UDB.CountDocuments(r.Context(), bson.M{}); err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}
	if stats.Cars, err = h.CarDB.CountDocuments(r.Context(), bson.M{}); err != nil {
		config.ErrorStatus("failed to count cars", http.StatusInternalServerError, w, err)
		return
	}
	if stats.Maintenance, err = h.MaintDB.CountDocuments(r.Context(), bson.M{}); err != nil {
		config.ErrorStatus("failed to count maintenance records", http.StatusInternalServerError, w, err)
		return
	}
	if stats.Projects, err = h.ProjDB.CountDocuments(r.Context(), bson.M{}); err != nil {
		config.ErrorStatus("failed to count projects", http.StatusInternalServerError, w, err)
		return
	}
	if stats.Events, err = h.EventDB.CountDocuments(r.Context(), bson.M{}); err != nil {
		config.ErrorStatus("failed to count events", http.StatusInternalServerError, w, err)
		return
	}

	rows, err := h.CarDB.CountByOwner(r.Context())
	if err != nil {
		config.ErrorStatus("failed to aggregate cars by owner", http.StatusInternalServerError, w, err)
		return
	}
	stats.CarsByOwner = map[string]int64{}
	for _, row := range rows {
		stats.CarsByOwner[row.OwnerID] = row.Count
	}

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UsersHandler returns all users for the admin dashboard
func (h Admin) UsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.UDB.Find(r.Context(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusNotFound, w, err)
		return
	}
	if len(users) == 0 {
		users = []models.User{}
	}
	b, err := json.Marshal(users)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
