package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/api/handlers"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/databases/mocks"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

var testRules = rules.New("admin@garagehub.app")

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func authedRequest(t *testing.T, method, target string, p *models.Principal, vars map[string]string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	if p != nil {
		req = req.WithContext(api.WithPrincipal(req.Context(), p))
	}
	return req
}

func TestUser_UserHandlerDeniedForOtherUser(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/user/5fc51f58c72ff10004dca382",
		&models.Principal{ID: "someone-else", Email: "other@example.com"},
		map[string]string{"user_id": "5fc51f58c72ff10004dca382"})

	u := handlers.User{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
}

func TestUser_UserHandlerNotFound(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/user/5fc51f58c72ff10004dca382",
		&models.Principal{ID: "5fc51f58c72ff10004dca382", Email: "me@example.com"},
		map[string]string{"user_id": "5fc51f58c72ff10004dca382"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{} // can be used as db = &mocks.DatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	expected := `{"response": "failed to get user by ID, mocked-error"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestUser_UserHandlerSuccess(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "GET", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: uID.Hex(), Email: "me@example.com"},
		map[string]string{"user_id": uID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = uID
		(*arg).Email = "me@example.com"
		(*arg).Name = "Me"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "me@example.com")
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestUser_UserHandlerAdminCanReadAnyone(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "GET", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: "admin-id", Email: "admin@garagehub.app"},
		map[string]string{"user_id": uID.Hex()})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = uID
		(*arg).Email = "member@example.com"
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUser_DeleteUserHandlerSessionError(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "DELETE", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: uID.Hex(), Email: "me@example.com"},
		map[string]string{"user_id": uID.Hex()})

	var db databases.DatabaseHelper
	var client databases.ClientHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	client = &mocks.ClientHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = uID
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)
	client.(*mocks.ClientHelper).On("StartSession").Return(nil, errors.New("mocked-error"))
	db.(*MockDatabaseHelper).On("Client").Return(client)

	u := handlers.User{
		DB:       databases.NewUserDatabase(db),
		DBHelper: db,
		Rules:    testRules,
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteUserHandler).ServeHTTP(rr, req)

	// no owned data may be touched when the transaction cannot start
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	expected := `{"response": "failed to start session, mocked-error"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestUser_DeleteUserHandlerDeniedForOtherUser(t *testing.T) {
	req := authedRequest(t, "DELETE", "/api/v1/user/5fc51f58c72ff10004dca382",
		&models.Principal{ID: "someone-else", Email: "other@example.com"},
		map[string]string{"user_id": "5fc51f58c72ff10004dca382"})

	u := handlers.User{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
}

func TestUser_UpdateUserHandlerSuccess(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "PUT", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: uID.Hex(), Email: "me@example.com"},
		map[string]string{"user_id": uID.Hex()})
	req.Body = newBody(`{"name": "New Name", "email": "NEW@Example.com"}`)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	noDocs := &mocks.SingleResultHelper{}

	noDocs.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(noDocs)
	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set, ok := update.(bson.M)["$set"].(bson.M)
		if !ok {
			return false
		}
		return set["name"] == "New Name" && set["email"] == "new@example.com" && set["admin"] == false
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "User updated successfully")
}

func TestUser_UpdateUserHandlerSentinelEmailDenied(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "PUT", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: uID.Hex(), Email: "me@example.com"},
		map[string]string{"user_id": uID.Hex()})
	req.Body = newBody(`{"email": "Admin@GarageHub.app"}`)

	// the store must never be touched on a denied sentinel grab
	db := &MockDatabaseHelper{}

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
	db.AssertNotCalled(t, "Collection", "users")
}

func TestUser_UpdateUserHandlerDuplicateEmailConflict(t *testing.T) {
	uID := primitive.NewObjectID()
	req := authedRequest(t, "PUT", "/api/v1/user/"+uID.Hex(),
		&models.Principal{ID: uID.Hex(), Email: "me@example.com"},
		map[string]string{"user_id": uID.Hex()})
	req.Body = newBody(`{"email": "taken@example.com"}`)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	singleResult.On("Decode", mock.Anything).Return(nil)
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f := filter.(bson.M)
		return f["email"] == "taken@example.com"
	})).Return(singleResult)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already exists")
	conn.(*mocks.CollectionHelper).AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestUser_UpdateUserHandlerAdminCanAssignSentinel(t *testing.T) {
	targetID := primitive.NewObjectID()
	req := authedRequest(t, "PUT", "/api/v1/user/"+targetID.Hex(),
		&models.Principal{ID: "a1", Email: "admin@garagehub.app"},
		map[string]string{"user_id": targetID.Hex()})
	req.Body = newBody(`{"email": "admin@garagehub.app"}`)

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	noDocs := &mocks.SingleResultHelper{}

	noDocs.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(noDocs)
	conn.(*mocks.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set, ok := update.(bson.M)["$set"].(bson.M)
		if !ok {
			return false
		}
		return set["email"] == "admin@garagehub.app" && set["admin"] == true
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.(*MockDatabaseHelper).On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
