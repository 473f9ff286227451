package health

import "time"

type Type string

const (
	TypeCheckup     Type = "checkup"
	TypeVaccination Type = "vaccination"
	TypeTreatment   Type = "treatment"
	TypeSurgery     Type = "surgery"
	TypeEmergency   Type = "emergency"
	TypeFollowUp    Type = "follow_up"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCheckup, TypeVaccination, TypeTreatment, TypeSurgery, TypeEmergency, TypeFollowUp:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled       Status = "scheduled"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusPendingFollowUp Status = "pending_followup"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusPendingFollowUp:
		return true
	}
	return false
}

type Medication struct {
	Name           string     `json:"name" bson:"name"`
	Dosage         string     `json:"dosage" bson:"dosage"`
	Frequency      string     `json:"frequency" bson:"frequency"`
	Duration       string     `json:"duration,omitempty" bson:"duration,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	AdministeredBy string     `json:"administered_by,omitempty" bson:"administered_by,omitempty"`
}

type Vitals struct {
	Temperature     float64 `json:"temperature,omitempty" bson:"temperature,omitempty"`
	Weight          float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	HeartRate       float64 `json:"heart_rate,omitempty" bson:"heart_rate,omitempty"`
	RespiratoryRate float64 `json:"respiratory_rate,omitempty" bson:"respiratory_rate,omitempty"`
	BloodPressure   string  `json:"blood_pressure,omitempty" bson:"blood_pressure,omitempty"`
}

type LabResult struct {
	TestName       string     `json:"test_name" bson:"test_name"`
	Result         string     `json:"result" bson:"result"`
	ReferenceRange string     `json:"reference_range,omitempty" bson:"reference_range,omitempty"`
	Date           *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

type Record struct {
	ID               string       `json:"id" bson:"_id"`
	AnimalID         string       `json:"animal_id" bson:"animal_id"`
	AnimalName       string       `json:"animal_name" bson:"animal_name"`
	Date             time.Time    `json:"date" bson:"date"`
	Veterinarian     string       `json:"veterinarian" bson:"veterinarian"`
	Type             Type         `json:"type" bson:"type"`
	Diagnosis        string       `json:"diagnosis" bson:"diagnosis"`
	Treatment        string       `json:"treatment" bson:"treatment"`
	Medication       []Medication `json:"medication" bson:"medication"`
	Vitals           Vitals       `json:"vitals" bson:"vitals"`
	LabResults       []LabResult  `json:"lab_results" bson:"lab_results"`
	Notes            string       `json:"notes,omitempty" bson:"notes,omitempty"`
	Cost             float64      `json:"cost" bson:"cost"`
	FollowUpDate     *time.Time   `json:"follow_up_date,omitempty" bson:"follow_up_date,omitempty"`
	FollowUpRequired bool         `json:"follow_up_required" bson:"follow_up_required"`
	Status           Status       `json:"status" bson:"status"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" bson:"updated_at"`
}

// FollowUpDue: seguimiento pendiente con fecha cumplida a now.
func (r Record) FollowUpDue(now time.Time) bool {
	return r.FollowUpRequired &&
		r.Status == StatusPendingFollowUp &&
		r.FollowUpDate != nil &&
		!now.Before(*r.FollowUpDate)
}
