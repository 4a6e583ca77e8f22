package handlers

import (
	"encoding/json"
	"net/http"
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

// Car exported for testing purposes
type Car struct {
	DB    databases.CarDatabase
	Rules *rules.Rules
}

// newestFirst orders owned-entity listings newest-created-first, ties broken
// deterministically by id
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// CarsHandler returns the cars visible to the principal: owned cars for a
// regular user, the union of everyone's cars for an admin
func (c Car) CarsHandler(w http.ResponseWriter, r *http.Request) {
	principal := api.PrincipalFromContext(r.Context())
	if !c.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	filter := bson.M{"ownerID": principal.ID}
	if c.Rules.IsAdmin(principal) {
		filter = bson.M{}
	}

	dbResp, err := c.DB.Find(r.Context(), filter, options.Find().SetSort(newestFirst))
	if err != nil {
		config.ErrorStatus("failed to get cars", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Car{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CarByIDHandler returns a car by ID. A car the principal may not read
// yields a denial, never a not-found.
func (c Car) CarByIDHandler(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["car_id"]

	zap.S().Debugf("car_id: %v", carID)

	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get car by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !c.Rules.CanAccessOwned(principal, dbResp.OwnerID) {
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

// CreateCarHandler creates a car owned by the principal
func (c Car) CreateCarHandler(w http.ResponseWriter, r *http.Request) {
	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if car.OwnerID == "" {
		car.OwnerID = principal.ID
	}
	if !c.Rules.CanCreateOwned(principal, car.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	car.ID = primitive.NewObjectID()
	car.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	car.UpdatedAt = car.CreatedAt

	if _, err := c.DB.InsertOne(r.Context(), car); err != nil {
		config.ErrorStatus("failed to create car", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car created successfully",
		"id":      car.ID.Hex(),
	})
}

// UpdateCarHandler updates a car's details. OwnerID is immutable; the stored
// value always wins over whatever the payload carries.
func (c Car) UpdateCarHandler(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["car_id"]

	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get car by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !c.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{
		"make":      car.Make,
		"model":     car.Model,
		"year":      car.Year,
		"plate":     car.Plate,
		"vin":       car.Vin,
		"mileage":   car.Mileage,
		"color":     car.Color,
		"imageUrl":  car.ImageURL,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update car", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car updated successfully",
	})
}

// DeleteCarHandler deletes a car by ID. Maintenance records and projects
// referencing the car are left in place with a dangling carID.
func (c Car) DeleteCarHandler(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["car_id"]

	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	existing, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get car by ID", http.StatusNotFound, w, err)
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !c.Rules.CanAccessOwned(principal, existing.OwnerID) {
		config.DeniedStatus(w)
		return
	}

	if _, err := c.DB.DeleteOne(r.Context(), bson.M{"_id": cID}); err != nil {
		config.ErrorStatus("failed to delete car", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car deleted successfully",
	})
}
