package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name" bson:"name"`
	Password  string             `json:"-" bson:"password"`
	Admin     bool               `json:"admin" bson:"admin"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Principal is the authenticated identity attached to a request. A nil
// Principal means the request is unauthenticated.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
