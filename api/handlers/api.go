package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/api/scheduler"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/rules"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Rules    *rules.Rules
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := api.New()

	userDB := databases.NewUserDatabase(a.dbHelper)
	carDB := databases.NewCarDatabase(a.dbHelper)
	maintDB := databases.NewMaintenanceDatabase(a.dbHelper)
	projDB := databases.NewProjectDatabase(a.dbHelper)
	eventDB := databases.NewEventDatabase(a.dbHelper)

	authH := Auth{DB: userDB, Config: &a.Config, Rules: a.Rules}
	u := User{DB: userDB, CarDB: carDB, MaintDB: maintDB, ProjDB: projDB, DBHelper: a.dbHelper, Rules: a.Rules}
	car := Car{DB: carDB, Rules: a.Rules}
	maint := Maintenance{DB: maintDB, Rules: a.Rules, Now: time.Now}
	proj := Project{DB: projDB, Rules: a.Rules}
	event := Event{DB: eventDB, Rules: a.Rules}
	admin := Admin{UDB: userDB, CarDB: carDB, MaintDB: maintDB, ProjDB: projDB, EventDB: eventDB, Config: &a.Config, Rules: a.Rules}
	stream := Stream{DB: a.dbHelper, Rules: a.Rules}
	cloudinaryHandler := CloudinaryHandler{}

	adminAuth := api.AdminMiddleware(a.Config.JWTSecret)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(authH.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/session", api.Middleware(http.HandlerFunc(authH.SessionHandler))).Methods("GET")

	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.DeleteUserHandler))).Methods("DELETE")

	apiCreate.Handle("/car", api.Middleware(http.HandlerFunc(car.CreateCarHandler))).Methods("POST")
	apiCreate.Handle("/cars", api.Middleware(http.HandlerFunc(car.CarsHandler))).Methods("GET")
	apiCreate.Handle("/cars/upload-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")
	apiCreate.Handle("/car/{car_id}", api.Middleware(http.HandlerFunc(car.CarByIDHandler))).Methods("GET")
	apiCreate.Handle("/car/{car_id}", api.Middleware(http.HandlerFunc(car.UpdateCarHandler))).Methods("PUT")
	apiCreate.Handle("/car/{car_id}", api.Middleware(http.HandlerFunc(car.DeleteCarHandler))).Methods("DELETE")

	apiCreate.Handle("/maintenance", api.Middleware(http.HandlerFunc(maint.CreateMaintenanceHandler))).Methods("POST")
	apiCreate.Handle("/maintenance", api.Middleware(http.HandlerFunc(maint.MaintenanceListHandler))).Methods("GET")
	apiCreate.Handle("/maintenance/upcoming", api.Middleware(http.HandlerFunc(maint.UpcomingMaintenanceHandler))).Methods("GET")
	apiCreate.Handle("/maintenance/{record_id}", api.Middleware(http.HandlerFunc(maint.MaintenanceByIDHandler))).Methods("GET")
	apiCreate.Handle("/maintenance/{record_id}", api.Middleware(http.HandlerFunc(maint.UpdateMaintenanceHandler))).Methods("PUT")
	apiCreate.Handle("/maintenance/{record_id}", api.Middleware(http.HandlerFunc(maint.DeleteMaintenanceHandler))).Methods("DELETE")
	apiCreate.Handle("/maintenance/{record_id}/complete", api.Middleware(http.HandlerFunc(maint.ToggleCompletedHandler))).Methods("PATCH")

	apiCreate.Handle("/project", api.Middleware(http.HandlerFunc(proj.CreateProjectHandler))).Methods("POST")
	apiCreate.Handle("/projects", api.Middleware(http.HandlerFunc(proj.ProjectsHandler))).Methods("GET")
	apiCreate.Handle("/project/{project_id}", api.Middleware(http.HandlerFunc(proj.ProjectByIDHandler))).Methods("GET")
	apiCreate.Handle("/project/{project_id}", api.Middleware(http.HandlerFunc(proj.UpdateProjectHandler))).Methods("PUT")
	apiCreate.Handle("/project/{project_id}", api.Middleware(http.HandlerFunc(proj.DeleteProjectHandler))).Methods("DELETE")

	apiCreate.Handle("/event", api.Middleware(http.HandlerFunc(event.CreateEventHandler))).Methods("POST")
	apiCreate.Handle("/events", api.Middleware(http.HandlerFunc(event.EventsHandler))).Methods("GET")
	apiCreate.Handle("/events/mine", api.Middleware(http.HandlerFunc(event.MyEventsHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(event.EventByIDHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(event.UpdateEventHandler))).Methods("PUT")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(event.DeleteEventHandler))).Methods("DELETE")
	apiCreate.Handle("/event/{event_id}/join", api.Middleware(http.HandlerFunc(event.JoinEventHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}/leave", api.Middleware(http.HandlerFunc(event.LeaveEventHandler))).Methods("POST")

	apiCreate.Handle("/stream/{collection}", api.Middleware(http.HandlerFunc(stream.StreamHandler))).Methods("GET")

	// admin aggregations get a hard deadline
	timeout := api.TimeoutMiddleware(api.QueryTimeout)

	apiCreate.Handle("/admin/token", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/stats", adminAuth(timeout(http.HandlerFunc(admin.StatsHandler)))).Methods("GET")
	apiCreate.Handle("/admin/users", adminAuth(timeout(http.HandlerFunc(admin.UsersHandler)))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("garagehub-api has connected to the database")

	a.Rules = rules.New(a.Config.AdminEmail)

	// start background maintenance reminders
	s := scheduler.NewScheduler(
		databases.NewMaintenanceDatabase(a.dbHelper),
		databases.NewCarDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
	)
	s.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}
