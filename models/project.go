package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectPriority is the closed set of project priorities
type ProjectPriority string

// Project priorities
const (
	PriorityLow      ProjectPriority = "low"
	PriorityMedium   ProjectPriority = "medium"
	PriorityHigh     ProjectPriority = "high"
	PriorityCritical ProjectPriority = "critical"
)

// IsValid reports whether p is one of the known priorities
func (p ProjectPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ProjectStatus is the closed set of project statuses
type ProjectStatus string

// Project statuses
const (
	StatusPlanned    ProjectStatus = "planned"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusCancelled  ProjectStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Project holds the structure for the projects collection in mongo.
// CarID may dangle after the referenced car is deleted.
type Project struct {
	ID            primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	OwnerID       string              `json:"ownerID" bson:"ownerID"`
	CarID         string              `json:"carID" bson:"carID"`
	Title         string              `json:"title" bson:"title"`
	Description   string              `json:"description" bson:"description"`
	Priority      ProjectPriority     `json:"priority" bson:"priority"`
	Status        ProjectStatus       `json:"status" bson:"status"`
	EstimatedCost float64             `json:"estimatedCost" bson:"estimatedCost"`
	ActualCost    float64             `json:"actualCost" bson:"actualCost"`
	StartDate     *primitive.DateTime `json:"startDate,omitempty" bson:"startDate,omitempty"`
	TargetDate    *primitive.DateTime `json:"targetDate,omitempty" bson:"targetDate,omitempty"`
	CompletedDate *primitive.DateTime `json:"completedDate,omitempty" bson:"completedDate,omitempty"`
	Notes         string              `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}
