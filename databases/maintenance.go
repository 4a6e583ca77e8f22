package databases

// go generate: mockery --name MaintenanceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garagehub/garagehub-api/models"
)

const maintenanceName = "maintenance"

// MaintenanceDatabase contains the methods to use with the maintenance database
type MaintenanceDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Maintenance, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Maintenance, error)
	InsertOne(ctx context.Context, record models.Maintenance) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type maintenanceDatabase struct {
	db DatabaseHelper
}

// NewMaintenanceDatabase initializes a new instance of maintenance database with the provided db connection
func NewMaintenanceDatabase(db DatabaseHelper) MaintenanceDatabase {
	return &maintenanceDatabase{
		db: db,
	}
}

func (m *maintenanceDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Maintenance, error) {
	record := &models.Maintenance{}
	err := m.db.Collection(maintenanceName).FindOne(ctx, filter).Decode(&record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (m *maintenanceDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Maintenance, error) {
	cursor, err := m.db.Collection(maintenanceName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var records []models.Maintenance
	if err := cursor.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *maintenanceDatabase) InsertOne(ctx context.Context, record models.Maintenance) (interface{}, error) {
	return m.db.Collection(maintenanceName).InsertOne(ctx, record)
}

func (m *maintenanceDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(maintenanceName).UpdateOne(ctx, filter, update, opts...)
}

func (m *maintenanceDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return m.db.Collection(maintenanceName).DeleteOne(ctx, filter)
}

func (m *maintenanceDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return m.db.Collection(maintenanceName).DeleteMany(ctx, filter)
}

func (m *maintenanceDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(maintenanceName).CountDocuments(ctx, filter, opts...)
}
