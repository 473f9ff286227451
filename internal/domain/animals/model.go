package animals

import "time"

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

type Origin string

const (
	OriginWild        Origin = "wild"
	OriginCaptiveBred Origin = "captive_bred"
	OriginRescue      Origin = "rescue"
	OriginTransfer    Origin = "transfer"
	OriginDonation    Origin = "donation"
)

func (o Origin) Valid() bool {
	switch o {
	case OriginWild, OriginCaptiveBred, OriginRescue, OriginTransfer, OriginDonation:
		return true
	}
	return false
}

type Status string

const (
	StatusActive           Status = "active"
	StatusQuarantine       Status = "quarantine"
	StatusMedicalTreatment Status = "medical_treatment"
	StatusBreeding         Status = "breeding"
	StatusRetired          Status = "retired"
	StatusDeceased         Status = "deceased"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusQuarantine, StatusMedicalTreatment, StatusBreeding, StatusRetired, StatusDeceased:
		return true
	}
	return false
}

type Temperament string

const (
	TemperamentDocile      Temperament = "docile"
	TemperamentAggressive  Temperament = "aggressive"
	TemperamentShy         Temperament = "shy"
	TemperamentPlayful     Temperament = "playful"
	TemperamentTerritorial Temperament = "territorial"
	TemperamentSocial      Temperament = "social"
)

func (t Temperament) Valid() bool {
	switch t {
	case TemperamentDocile, TemperamentAggressive, TemperamentShy, TemperamentPlayful, TemperamentTerritorial, TemperamentSocial:
		return true
	}
	return false
}

// ConservationStatus sigue las categorías de la lista roja de la UICN.
type ConservationStatus string

const (
	ConservationLeastConcern         ConservationStatus = "least_concern"
	ConservationNearThreatened       ConservationStatus = "near_threatened"
	ConservationVulnerable           ConservationStatus = "vulnerable"
	ConservationEndangered           ConservationStatus = "endangered"
	ConservationCriticallyEndangered ConservationStatus = "critically_endangered"
	ConservationExtinctInWild        ConservationStatus = "extinct_in_wild"
	ConservationExtinct              ConservationStatus = "extinct"
)

func (c ConservationStatus) Valid() bool {
	switch c {
	case "", ConservationLeastConcern, ConservationNearThreatened, ConservationVulnerable,
		ConservationEndangered, ConservationCriticallyEndangered, ConservationExtinctInWild, ConservationExtinct:
		return true
	}
	return false
}

type PhysicalDescription struct {
	Weight                 float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	Height                 float64 `json:"height,omitempty" bson:"height,omitempty"`
	Length                 float64 `json:"length,omitempty" bson:"length,omitempty"`
	Color                  string  `json:"color,omitempty" bson:"color,omitempty"`
	Markings               string  `json:"markings,omitempty" bson:"markings,omitempty"`
	DistinguishingFeatures string  `json:"distinguishing_features,omitempty" bson:"distinguishing_features,omitempty"`
}

type Diet struct {
	Primary             string   `json:"primary" bson:"primary"`
	Secondary           []string `json:"secondary" bson:"secondary"`
	Restrictions        []string `json:"restrictions" bson:"restrictions"`
	FeedingFrequency    string   `json:"feeding_frequency" bson:"feeding_frequency"`
	SpecialRequirements string   `json:"special_requirements,omitempty" bson:"special_requirements,omitempty"`
}

type Medication struct {
	Name      string `json:"name" bson:"name"`
	Dosage    string `json:"dosage" bson:"dosage"`
	Frequency string `json:"frequency" bson:"frequency"`
	Duration  string `json:"duration" bson:"duration"`
}

// MedicalRecord es la copia embebida de un control de salud. HealthRecordID
// apunta al registro completo cuando lo creó el módulo de salud.
type MedicalRecord struct {
	ID             string       `json:"id" bson:"id"`
	HealthRecordID string       `json:"health_record_id,omitempty" bson:"health_record_id,omitempty"`
	Date           time.Time    `json:"date" bson:"date"`
	Veterinarian   string       `json:"veterinarian" bson:"veterinarian"`
	Diagnosis      string       `json:"diagnosis" bson:"diagnosis"`
	Treatment      string       `json:"treatment" bson:"treatment"`
	Medication     []Medication `json:"medication" bson:"medication"`
	Notes          string       `json:"notes,omitempty" bson:"notes,omitempty"`
	FollowUpDate   *time.Time   `json:"follow_up_date,omitempty" bson:"follow_up_date,omitempty"`
	Cost           float64      `json:"cost" bson:"cost"`
}

type FeedingScheduleEntry struct {
	ID                  string `json:"id" bson:"id"`
	Time                string `json:"time" bson:"time"` // HH:MM
	FoodType            string `json:"food_type" bson:"food_type"`
	Quantity            string `json:"quantity" bson:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
}

type Animal struct {
	ID                  string                 `json:"id" bson:"_id"`
	Name                string                 `json:"name" bson:"name"`
	Species             string                 `json:"species" bson:"species"`
	ScientificName      string                 `json:"scientific_name,omitempty" bson:"scientific_name,omitempty"`
	Gender              Gender                 `json:"gender" bson:"gender"`
	BirthDate           time.Time              `json:"birth_date" bson:"birth_date"`
	ArrivalDate         time.Time              `json:"arrival_date" bson:"arrival_date"`
	Origin              Origin                 `json:"origin" bson:"origin"`
	ExhibitID           string                 `json:"exhibit_id" bson:"exhibit_id"`
	Status              Status                 `json:"status" bson:"status"`
	PhysicalDescription PhysicalDescription    `json:"physical_description" bson:"physical_description"`
	Temperament         Temperament            `json:"temperament" bson:"temperament"`
	Diet                Diet                   `json:"diet" bson:"diet"`
	MedicalRecords      []MedicalRecord        `json:"medical_records" bson:"medical_records"`
	FeedingSchedule     []FeedingScheduleEntry `json:"feeding_schedule" bson:"feeding_schedule"`
	Tags                []string               `json:"tags" bson:"tags"`
	MicrochipID         string                 `json:"microchip_id,omitempty" bson:"microchip_id,omitempty"`
	RFIDTag             string                 `json:"rfid_tag,omitempty" bson:"rfid_tag,omitempty"`
	Notes               string                 `json:"notes,omitempty" bson:"notes,omitempty"`
	IsEndangered        bool                   `json:"is_endangered" bson:"is_endangered"`
	ConservationStatus  ConservationStatus     `json:"conservation_status,omitempty" bson:"conservation_status,omitempty"`
	LastHealthCheck     *time.Time             `json:"last_health_check,omitempty" bson:"last_health_check,omitempty"`
	NextHealthCheck     *time.Time             `json:"next_health_check,omitempty" bson:"next_health_check,omitempty"`
	LastFedAt           *time.Time             `json:"last_fed_at,omitempty" bson:"last_fed_at,omitempty"`
	NextFeedingDue      *time.Time             `json:"next_feeding_due,omitempty" bson:"next_feeding_due,omitempty"`
	IsActive            bool                   `json:"is_active" bson:"is_active"`
	Version             int64                  `json:"version" bson:"version"`
	CreatedAt           time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at" bson:"updated_at"`
}

// AgeYears son los años cumplidos a la fecha now.
func (a Animal) AgeYears(now time.Time) int {
	if a.BirthDate.IsZero() {
		return 0
	}
	b := a.BirthDate.In(now.Location())
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// DueForHealthCheck: now >= next_health_check. Sin fecha nunca está vencido.
func (a Animal) DueForHealthCheck(now time.Time) bool {
	return a.NextHealthCheck != nil && !now.Before(*a.NextHealthCheck)
}
