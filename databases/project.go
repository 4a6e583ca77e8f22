package databases

// go generate: mockery --name ProjectDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garagehub/garagehub-api/models"
)

const projectName = "projects"

// ProjectDatabase contains the methods to use with the project database
type ProjectDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Project, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Project, error)
	InsertOne(ctx context.Context, project models.Project) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type projectDatabase struct {
	db DatabaseHelper
}

// NewProjectDatabase initializes a new instance of project database with the provided db connection
func NewProjectDatabase(db DatabaseHelper) ProjectDatabase {
	return &projectDatabase{
		db: db,
	}
}

func (p *projectDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Project, error) {
	project := &models.Project{}
	err := p.db.Collection(projectName).FindOne(ctx, filter).Decode(&project)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (p *projectDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Project, error) {
	cursor, err := p.db.Collection(projectName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := cursor.Decode(&projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (p *projectDatabase) InsertOne(ctx context.Context, project models.Project) (interface{}, error) {
	return p.db.Collection(projectName).InsertOne(ctx, project)
}

func (p *projectDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return p.db.Collection(projectName).UpdateOne(ctx, filter, update, opts...)
}

func (p *projectDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(projectName).DeleteOne(ctx, filter)
}

func (p *projectDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(projectName).DeleteMany(ctx, filter)
}

func (p *projectDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return p.db.Collection(projectName).CountDocuments(ctx, filter, opts...)
}
