package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/logging"
	"github.com/garagehub/garagehub-api/models"
)

const reminderWindowDays = 30

// Scheduler handles periodic background jobs for maintenance reminders
type Scheduler struct {
	cron  *cron.Cron
	log   *zap.SugaredLogger
	MDB   databases.MaintenanceDatabase
	CarDB databases.CarDatabase
	UDB   databases.UserDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(mDB databases.MaintenanceDatabase, carDB databases.CarDatabase, uDB databases.UserDatabase) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		log:   logging.New(),
		MDB:   mDB,
		CarDB: carDB,
		UDB:   uDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Send maintenance due reminders daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.processDueReminders)
	if err != nil {
		s.log.Errorw("failed to register maintenance reminder job", "error", err)
	}

	s.cron.Start()
	s.log.Info("Maintenance reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Maintenance reminder scheduler stopped")
}

// processDueReminders finds open maintenance records coming due within the
// reminder window and emails each owner a summary.
func (s *Scheduler) processDueReminders() {
	if os.Getenv("SENDGRID_API_KEY") == "" {
		s.log.Debug("SENDGRID_API_KEY not set, skipping maintenance reminder job")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	windowEnd := now.Add(reminderWindowDays * 24 * time.Hour)

	s.log.Infow("Running maintenance reminder job")

	filter := bson.M{
		"completed": false,
		"nextDueDate": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now),
			"$lte": primitive.NewDateTimeFromTime(windowEnd),
		},
	}

	records, err := s.MDB.Find(ctx, filter)
	if err != nil {
		s.log.Errorw("failed to find due maintenance records", "error", err)
		return
	}
	if len(records) == 0 {
		s.log.Info("Maintenance reminder job complete, nothing due")
		return
	}

	byOwner := make(map[string][]models.Maintenance)
	for _, rec := range records {
		byOwner[rec.OwnerID] = append(byOwner[rec.OwnerID], rec)
	}

	sent := 0
	for ownerID, recs := range byOwner {
		if s.sendOwnerReminder(ctx, ownerID, recs) {
			sent++
		}
	}

	s.log.Infow("Maintenance reminder job complete",
		"recordsDue", len(records),
		"emailsSent", sent,
	)
}

func (s *Scheduler) sendOwnerReminder(ctx context.Context, ownerID string, recs []models.Maintenance) bool {
	oID, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		s.log.Errorw("invalid owner id on maintenance record", "ownerId", ownerID, "error", err)
		return false
	}

	user, err := s.UDB.FindOne(ctx, bson.M{"_id": oID})
	if err != nil {
		s.log.Errorw("failed to load owner for reminder", "ownerId", ownerID, "error", err)
		return false
	}

	var lines []string
	for _, rec := range recs {
		due := ""
		if rec.NextDueDate != nil {
			due = rec.NextDueDate.Time().UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) for %s, due %s",
			rec.Description, rec.Type, s.carLabel(ctx, rec.CarID), due))
	}

	plain := fmt.Sprintf("Hi %s,\n\nThe following maintenance is coming due in the next %d days:\n\n%s\n\nStay on top of it!\nGarageHub",
		user.Name, reminderWindowDays, strings.Join(lines, "\n"))
	html := fmt.Sprintf("<p>Hi %s,</p><p>The following maintenance is coming due in the next %d days:</p><p>%s</p><p>Stay on top of it!<br>GarageHub</p>",
		user.Name, reminderWindowDays, strings.Join(lines, "<br>"))

	subject := fmt.Sprintf("Upcoming maintenance: %d item(s) due soon", len(recs))
	if err := s.sendEmail(user.Email, user.Name, subject, html, plain); err != nil {
		s.log.Errorw("failed to send maintenance reminder", "ownerId", ownerID, "error", err)
		return false
	}
	return true
}

// carLabel resolves a car id to a readable name. Records may reference a car
// that has since been deleted.
func (s *Scheduler) carLabel(ctx context.Context, carID string) string {
	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return "Unknown Vehicle"
	}
	car, err := s.CarDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil || car == nil {
		return "Unknown Vehicle"
	}
	return fmt.Sprintf("%d %s %s", car.Year, car.Make, car.Model)
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("GarageHub", "no-reply@garagehub.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		s.log.Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
