package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	AdminEmail   string
	JWTSecret    string
	SendgridKey  string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
		AdminEmail:   strings.ToLower(os.Getenv("ADMIN_EMAIL")),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		SendgridKey:  os.Getenv("SENDGRID_API_KEY"),
	}

}

// Validate is the single readiness check for required config. Everything that
// would otherwise be guarded per call site is verified once at startup.
func (c *Config) Validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "DB_URI")
	}
	if c.DatabaseName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Port == "" {
		missing = append(missing, "PORT")
	}
	if c.AdminEmail == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

// DeniedStatus writes the authorization-denial response. Denials carry a
// stable machine code so callers can tell "not permitted" apart from
// "not found" and from validation failures.
func DeniedStatus(w http.ResponseWriter) {
	zap.S().Warn("operation not permitted")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "not permitted",
		"code":  "NOT_PERMITTED",
	})
}
