package databases

// go generate: mockery --name CarDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garagehub/garagehub-api/models"
)

const carName = "cars"

// CarDatabase contains the methods to use with the car database
type CarDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Car, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Car, error)
	InsertOne(ctx context.Context, car models.Car) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	CountByOwner(ctx context.Context) ([]models.OwnerCount, error)
}

type carDatabase struct {
	db DatabaseHelper
}

// NewCarDatabase initializes a new instance of car database with the provided db connection
func NewCarDatabase(db DatabaseHelper) CarDatabase {
	return &carDatabase{
		db: db,
	}
}

func (c *carDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Car, error) {
	car := &models.Car{}
	err := c.db.Collection(carName).FindOne(ctx, filter).Decode(&car)
	if err != nil {
		return nil, err
	}
	return car, nil
}

func (c *carDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Car, error) {
	cursor, err := c.db.Collection(carName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var cars []models.Car
	if err := cursor.Decode(&cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *carDatabase) InsertOne(ctx context.Context, car models.Car) (interface{}, error) {
	return c.db.Collection(carName).InsertOne(ctx, car)
}

func (c *carDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(carName).UpdateOne(ctx, filter, update, opts...)
}

func (c *carDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(carName).DeleteOne(ctx, filter)
}

func (c *carDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(carName).DeleteMany(ctx, filter)
}

func (c *carDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(carName).CountDocuments(ctx, filter, opts...)
}

func (c *carDatabase) CountByOwner(ctx context.Context) ([]models.OwnerCount, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$ownerID", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := c.db.Collection(carName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []models.OwnerCount
	if err := cursor.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
