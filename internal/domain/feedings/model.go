package feedings

import "time"

type Feeding struct {
	ID                  string     `json:"id" bson:"_id"`
	AnimalID            string     `json:"animal_id" bson:"animal_id"`
	AnimalName          string     `json:"animal_name" bson:"animal_name"`
	ExhibitID           string     `json:"exhibit_id" bson:"exhibit_id"`
	FoodType            string     `json:"food_type" bson:"food_type"`
	Quantity            string     `json:"quantity" bson:"quantity"`
	ScheduledTime       string     `json:"scheduled_time" bson:"scheduled_time"` // HH:MM
	Completed           bool       `json:"completed" bson:"completed"`
	CompletedBy         string     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	Notes               string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" bson:"updated_at"`
}
