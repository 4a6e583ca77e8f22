package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/garagehub/garagehub-api/api/handlers"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/databases/mocks"
	"github.com/garagehub/garagehub-api/models"
)

func TestCar_CarByIDHandlerBadID(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/car/asdf",
		&models.Principal{ID: "u1", Email: "u1@example.com"},
		map[string]string{"car_id": "asdf"})

	c := handlers.Car{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestCar_CarByIDHandlerForeignCarDenied(t *testing.T) {
	cID := primitive.NewObjectID()
	req := authedRequest(t, "GET", "/api/v1/car/"+cID.Hex(),
		&models.Principal{ID: "u2", Email: "u2@example.com"},
		map[string]string{"car_id": cID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = cID
		(*arg).OwnerID = "u1"
		(*arg).Make = "Mazda"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarByIDHandler).ServeHTTP(rr, req)

	// another user's car is a denial, never a not-found
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
	assert.NotContains(t, rr.Body.String(), "Mazda")
}

func TestCar_CarByIDHandlerOwnerSuccess(t *testing.T) {
	cID := primitive.NewObjectID()
	req := authedRequest(t, "GET", "/api/v1/car/"+cID.Hex(),
		&models.Principal{ID: "u1", Email: "u1@example.com"},
		map[string]string{"car_id": cID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = cID
		(*arg).OwnerID = "u1"
		(*arg).Make = "Mazda"
		(*arg).Model = "MX-5"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mazda")
}

func TestCar_CarsHandlerScopedToOwner(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/cars",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursor databases.CursorHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	cursor = &mocks.CursorHelper{}

	cursor.(*mocks.CursorHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Car)
		*arg = []models.Car{{OwnerID: "u1", Make: "Mazda"}}
	})
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f, ok := filter.(bson.M)
		return ok && f["ownerID"] == "u1"
	}), mock.Anything).Return(cursor, nil)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mazda")
}

func TestCar_CarsHandlerAdminSeesAll(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/cars",
		&models.Principal{ID: "admin-id", Email: "admin@garagehub.app"}, nil)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursor databases.CursorHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	cursor = &mocks.CursorHelper{}

	cursor.(*mocks.CursorHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Car)
		*arg = []models.Car{{OwnerID: "u1"}, {OwnerID: "u2"}}
	})
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f, ok := filter.(bson.M)
		return ok && len(f) == 0
	}), mock.Anything).Return(cursor, nil)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCar_CarsHandlerUnauthenticated(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/cars", nil, nil)

	c := handlers.Car{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCar_CreateCarHandlerForeignOwnerDenied(t *testing.T) {
	req := authedRequest(t, "POST", "/api/v1/car",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)
	req.Body = newBody(`{"ownerID": "u2", "make": "Mazda", "model": "MX-5", "year": 1999}`)

	c := handlers.Car{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
}

func TestCar_CreateCarHandlerSuccess(t *testing.T) {
	req := authedRequest(t, "POST", "/api/v1/car",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)
	req.Body = newBody(`{"make": "Mazda", "model": "MX-5", "year": 1999, "mileage": 120000, "color": "red"}`)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		car, ok := doc.(models.Car)
		return ok && car.OwnerID == "u1" && car.Make == "Mazda"
	})).Return(primitive.NewObjectID(), nil)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Car created successfully")
}

func TestCar_UpdateCarHandlerOwnerIDImmutable(t *testing.T) {
	cID := primitive.NewObjectID()
	req := authedRequest(t, "PUT", "/api/v1/car/"+cID.Hex(),
		&models.Principal{ID: "u1", Email: "u1@example.com"},
		map[string]string{"car_id": cID.Hex()})
	req.Body = newBody(`{"ownerID": "u2", "make": "Mazda", "model": "MX-5", "year": 1999}`)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = cID
		(*arg).OwnerID = "u1"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set, ok := update.(bson.M)["$set"].(bson.M)
		if !ok {
			return false
		}
		_, touchesOwner := set["ownerID"]
		_, touchesCreated := set["createdAt"]
		return !touchesOwner && !touchesCreated && set["make"] == "Mazda"
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Car updated successfully")
}

func TestCar_DeleteCarHandlerSuccess(t *testing.T) {
	cID := primitive.NewObjectID()
	req := authedRequest(t, "DELETE", "/api/v1/car/"+cID.Hex(),
		&models.Principal{ID: "u1", Email: "u1@example.com"},
		map[string]string{"car_id": cID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = cID
		(*arg).OwnerID = "u1"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DeleteCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Car deleted successfully")
}

func TestCar_DeleteCarHandlerNotFound(t *testing.T) {
	cID := primitive.NewObjectID()
	req := authedRequest(t, "DELETE", "/api/v1/car/"+cID.Hex(),
		&models.Principal{ID: "u1", Email: "u1@example.com"},
		map[string]string{"car_id": cID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DeleteCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
