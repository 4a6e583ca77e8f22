package databases

// go generate: mockery --name EventDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garagehub/garagehub-api/models"
)

const eventName = "events"

// EventDatabase contains the methods to use with the event database
type EventDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Event, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Event, error)
	InsertOne(ctx context.Context, event models.Event) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type eventDatabase struct {
	db DatabaseHelper
}

// NewEventDatabase initializes a new instance of event database with the provided db connection
func NewEventDatabase(db DatabaseHelper) EventDatabase {
	return &eventDatabase{
		db: db,
	}
}

func (e *eventDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Event, error) {
	event := &models.Event{}
	err := e.db.Collection(eventName).FindOne(ctx, filter).Decode(&event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (e *eventDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Event, error) {
	cursor, err := e.db.Collection(eventName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := cursor.Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

func (e *eventDatabase) InsertOne(ctx context.Context, event models.Event) (interface{}, error) {
	return e.db.Collection(eventName).InsertOne(ctx, event)
}

func (e *eventDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return e.db.Collection(eventName).UpdateOne(ctx, filter, update, opts...)
}

func (e *eventDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return e.db.Collection(eventName).DeleteOne(ctx, filter)
}

func (e *eventDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return e.db.Collection(eventName).CountDocuments(ctx, filter, opts...)
}
