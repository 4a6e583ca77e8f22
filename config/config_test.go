package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	os.Setenv("ADMIN_EMAIL", "Admin@GarageHub.app")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "admin@garagehub.app", conf.AdminEmail)
}

func TestValidate(t *testing.T) {
	conf := &Config{
		URL:          "mongodb://127.0.0.1:27017",
		DatabaseName: "test",
		Port:         "8080",
		AdminEmail:   "admin@garagehub.app",
		JWTSecret:    "secret",
	}
	assert.NoError(t, conf.Validate())
}

func TestValidateListsAllMissing(t *testing.T) {
	conf := &Config{URL: "mongodb://127.0.0.1:27017"}

	err := conf.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "ADMIN_EMAIL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.NotContains(t, err.Error(), "DB_URI")
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"response": "error it borked, bad request"}`, rr.Body.String())
}

func TestDeniedStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	DeniedStatus(rr)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PERMITTED")
}
