package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/garagehub/garagehub-api/api/handlers"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/databases/mocks"
	"github.com/garagehub/garagehub-api/models"
)

func TestProject_CreateProjectHandlerBadPriority(t *testing.T) {
	req := authedRequest(t, "POST", "/api/v1/project",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)
	req.Body = newBody(`{"title": "Turbo swap", "priority": "urgent", "status": "planned"}`)

	p := handlers.Project{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(p.CreateProjectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid project priority")
}

func TestProject_CreateProjectHandlerBadStatus(t *testing.T) {
	req := authedRequest(t, "POST", "/api/v1/project",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)
	req.Body = newBody(`{"title": "Turbo swap", "priority": "high", "status": "done"}`)

	p := handlers.Project{Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(p.CreateProjectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid project status")
}

func TestProject_CreateProjectHandlerSuccess(t *testing.T) {
	req := authedRequest(t, "POST", "/api/v1/project",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)
	req.Body = newBody(`{"title": "Turbo swap", "priority": "high", "status": "planned", "estimatedCost": 3200}`)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		project, ok := doc.(models.Project)
		return ok && project.OwnerID == "u1" && project.Title == "Turbo swap"
	})).Return(primitive.NewObjectID(), nil)
	db.On("Collection", "projects").Return(conn)

	p := handlers.Project{DB: databases.NewProjectDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(p.CreateProjectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Project created successfully")
}

func TestProject_ProjectByIDHandlerForeignProjectDenied(t *testing.T) {
	pID := primitive.NewObjectID()
	req := authedRequest(t, "GET", "/api/v1/project/"+pID.Hex(),
		&models.Principal{ID: "u2", Email: "u2@example.com"},
		map[string]string{"project_id": pID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Project)
		(*arg).ID = pID
		(*arg).OwnerID = "u1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "projects").Return(conn)

	p := handlers.Project{DB: databases.NewProjectDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(p.ProjectByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
}

func TestProject_ProjectsHandlerScopedToOwner(t *testing.T) {
	req := authedRequest(t, "GET", "/api/v1/projects",
		&models.Principal{ID: "u1", Email: "u1@example.com"}, nil)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Project)
		*arg = []models.Project{{OwnerID: "u1", Title: "Turbo swap"}}
	})
	conn.On("Find", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f, ok := filter.(bson.M)
		return ok && f["ownerID"] == "u1"
	}), mock.Anything).Return(cursor, nil)
	db.On("Collection", "projects").Return(conn)

	p := handlers.Project{DB: databases.NewProjectDatabase(db), Rules: testRules}

	rr := httptest.NewRecorder()
	http.HandlerFunc(p.ProjectsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Turbo swap")
}
