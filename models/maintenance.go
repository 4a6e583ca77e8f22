package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceType is the closed set of maintenance record types
type MaintenanceType string

// Maintenance record types
const (
	MaintenanceOilChange    MaintenanceType = "oil_change"
	MaintenanceTireRotation MaintenanceType = "tire_rotation"
	MaintenanceBrakeService MaintenanceType = "brake_service"
	MaintenanceEngineRepair MaintenanceType = "engine_repair"
	MaintenanceInspection   MaintenanceType = "inspection"
	MaintenanceBattery      MaintenanceType = "battery"
	MaintenanceTransmission MaintenanceType = "transmission"
	MaintenanceOther        MaintenanceType = "other"
)

// IsValid reports whether t is one of the known maintenance types
func (t MaintenanceType) IsValid() bool {
	switch t {
	case MaintenanceOilChange, MaintenanceTireRotation, MaintenanceBrakeService,
		MaintenanceEngineRepair, MaintenanceInspection, MaintenanceBattery,
		MaintenanceTransmission, MaintenanceOther:
		return true
	}
	return false
}

// Maintenance holds the structure for the maintenance collection in mongo.
// CarID may reference a car that has since been deleted; consumers render
// such records against an "Unknown Vehicle".
type Maintenance struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	OwnerID         string              `json:"ownerID" bson:"ownerID"`
	CarID           string              `json:"carID" bson:"carID"`
	Type            MaintenanceType     `json:"type" bson:"type"`
	Description     string              `json:"description" bson:"description"`
	Date            primitive.DateTime  `json:"date" bson:"date"`
	Mileage         int                 `json:"mileage" bson:"mileage"`
	Cost            float64             `json:"cost" bson:"cost"`
	ServiceProvider string              `json:"serviceProvider,omitempty" bson:"serviceProvider,omitempty"`
	Notes           string              `json:"notes,omitempty" bson:"notes,omitempty"`
	NextDueDate     *primitive.DateTime `json:"nextDueDate,omitempty" bson:"nextDueDate,omitempty"`
	NextDueMileage  int                 `json:"nextDueMileage,omitempty" bson:"nextDueMileage,omitempty"`
	Completed       bool                `json:"completed" bson:"completed"`
	CreatedAt       primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}
