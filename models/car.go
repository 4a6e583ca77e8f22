package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Car holds the structure for the cars collection in mongo
type Car struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	OwnerID   string             `json:"ownerID" bson:"ownerID"`
	Make      string             `json:"make" bson:"make"`
	Model     string             `json:"model" bson:"model"`
	Year      int                `json:"year" bson:"year"`
	Plate     string             `json:"plate" bson:"plate"`
	Vin       string             `json:"vin,omitempty" bson:"vin,omitempty"`
	Mileage   int                `json:"mileage" bson:"mileage"`
	Color     string             `json:"color" bson:"color"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// OwnerCount is one row of a per-owner grouping aggregation
type OwnerCount struct {
	OwnerID string `json:"ownerID" bson:"_id"`
	Count   int64  `json:"count" bson:"count"`
}
