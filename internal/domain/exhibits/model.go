package exhibits

import (
	"math"
	"strings"
	"time"
)

type Type string

const (
	TypeIndoor      Type = "indoor"
	TypeOutdoor     Type = "outdoor"
	TypeAquatic     Type = "aquatic"
	TypeAviary      Type = "aviary"
	TypeNocturnal   Type = "nocturnal"
	TypeInteractive Type = "interactive"
	TypeEducational Type = "educational"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIndoor, TypeOutdoor, TypeAquatic, TypeAviary, TypeNocturnal, TypeInteractive, TypeEducational:
		return true
	}
	return false
}

type Status string

const (
	StatusOpen        Status = "open"
	StatusClosed      Status = "closed"
	StatusMaintenance Status = "maintenance"
	StatusRenovation  Status = "renovation"
	StatusEmergency   Status = "emergency"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusMaintenance, StatusRenovation, StatusEmergency:
		return true
	}
	return false
}

type MaintenanceType string

const (
	MaintenanceRoutine    MaintenanceType = "routine"
	MaintenanceRepair     MaintenanceType = "repair"
	MaintenanceCleaning   MaintenanceType = "cleaning"
	MaintenanceInspection MaintenanceType = "inspection"
	MaintenanceUpgrade    MaintenanceType = "upgrade"
	MaintenanceEmergency  MaintenanceType = "emergency"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceRoutine, MaintenanceRepair, MaintenanceCleaning, MaintenanceInspection, MaintenanceUpgrade, MaintenanceEmergency:
		return true
	}
	return false
}

// InspectionInterval separa una inspección de la siguiente.
const InspectionInterval = 6 // meses

type Capacity struct {
	Visitors int `json:"visitors" bson:"visitors"`
	Animals  int `json:"animals" bson:"animals"`
}

// Occupancy es un valor derivado: Animals siempre es len(Exhibit.Animals).
type Occupancy struct {
	Visitors int `json:"visitors" bson:"visitors"`
	Animals  int `json:"animals" bson:"animals"`
}

type Size struct {
	Length float64 `json:"length,omitempty" bson:"length,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
	Area   float64 `json:"area,omitempty" bson:"area,omitempty"`
	Unit   string  `json:"unit,omitempty" bson:"unit,omitempty"`
}

type Location struct {
	Building string `json:"building,omitempty" bson:"building,omitempty"`
	Floor    string `json:"floor,omitempty" bson:"floor,omitempty"`
	Zone     string `json:"zone,omitempty" bson:"zone,omitempty"`
}

type Range struct {
	Min     *float64 `json:"min,omitempty" bson:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" bson:"max,omitempty"`
	Current *float64 `json:"current,omitempty" bson:"current,omitempty"`
}

type EnvironmentalControls struct {
	Temperature  Range      `json:"temperature" bson:"temperature"`
	Humidity     Range      `json:"humidity" bson:"humidity"`
	Lighting     string     `json:"lighting,omitempty" bson:"lighting,omitempty"`
	WaterQuality string     `json:"water_quality,omitempty" bson:"water_quality,omitempty"`
	LastChecked  *time.Time `json:"last_checked,omitempty" bson:"last_checked,omitempty"`
}

type MaintenanceRecord struct {
	ID                  string          `json:"id" bson:"id"`
	Date                time.Time       `json:"date" bson:"date"`
	Type                MaintenanceType `json:"type" bson:"type"`
	Description         string          `json:"description" bson:"description"`
	PerformedBy         string          `json:"performed_by" bson:"performed_by"`
	Cost                float64         `json:"cost" bson:"cost"`
	NextMaintenanceDate *time.Time      `json:"next_maintenance_date,omitempty" bson:"next_maintenance_date,omitempty"`
}

type StaffAssignment struct {
	StaffID    string    `json:"staff_id" bson:"staff_id"`
	Role       string    `json:"role" bson:"role"`
	AssignedAt time.Time `json:"assigned_at" bson:"assigned_at"`
}

type OperatingHours struct {
	Open  string   `json:"open" bson:"open"`   // HH:MM
	Close string   `json:"close" bson:"close"` // HH:MM
	Days  []string `json:"days" bson:"days"`
}

type AdmissionFee struct {
	Adult  float64 `json:"adult" bson:"adult"`
	Child  float64 `json:"child" bson:"child"`
	Senior float64 `json:"senior" bson:"senior"`
	Group  float64 `json:"group" bson:"group"`
}

type Exhibit struct {
	ID                    string                `json:"id" bson:"_id"`
	Name                  string                `json:"name" bson:"name"`
	Type                  Type                  `json:"type" bson:"type"`
	Theme                 string                `json:"theme" bson:"theme"`
	Description           string                `json:"description" bson:"description"`
	Capacity              Capacity              `json:"capacity" bson:"capacity"`
	CurrentOccupancy      Occupancy             `json:"current_occupancy" bson:"current_occupancy"`
	Size                  Size                  `json:"size" bson:"size"`
	Location              Location              `json:"location" bson:"location"`
	Features              []string              `json:"features" bson:"features"`
	EnvironmentalControls EnvironmentalControls `json:"environmental_controls" bson:"environmental_controls"`
	MaintenanceRecords    []MaintenanceRecord   `json:"maintenance_records" bson:"maintenance_records"`
	Animals               []string              `json:"animals" bson:"animals"`
	Staff                 []StaffAssignment     `json:"staff" bson:"staff"`
	OperatingHours        OperatingHours        `json:"operating_hours" bson:"operating_hours"`
	AdmissionFee          AdmissionFee          `json:"admission_fee" bson:"admission_fee"`
	Status                Status                `json:"status" bson:"status"`
	LastInspection        *time.Time            `json:"last_inspection,omitempty" bson:"last_inspection,omitempty"`
	NextInspection        *time.Time            `json:"next_inspection,omitempty" bson:"next_inspection,omitempty"`
	Notes                 string                `json:"notes" bson:"notes"`
	IsActive              bool                  `json:"is_active" bson:"is_active"`
	Version               int64                 `json:"version" bson:"version"`
	CreatedAt             time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at" bson:"updated_at"`
}

// HasAnimal indica si animalID ya está en la lista del exhibit.
func (e Exhibit) HasAnimal(animalID string) bool {
	for _, id := range e.Animals {
		if id == animalID {
			return true
		}
	}
	return false
}

// AnimalOccupancyPercent redondeado a entero; 0 si no hay capacidad declarada.
func (e Exhibit) AnimalOccupancyPercent() int {
	return percent(e.CurrentOccupancy.Animals, e.Capacity.Animals)
}

func (e Exhibit) VisitorOccupancyPercent() int {
	return percent(e.CurrentOccupancy.Visitors, e.Capacity.Visitors)
}

// IsOpen evalúa status + horario del día (HH:MM en la zona de now).
func (e Exhibit) IsOpen(now time.Time) bool {
	if !e.IsActive || e.Status != StatusOpen {
		return false
	}
	if len(e.OperatingHours.Days) > 0 {
		today := strings.ToLower(now.Weekday().String())
		found := false
		for _, d := range e.OperatingHours.Days {
			if strings.ToLower(strings.TrimSpace(d)) == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if e.OperatingHours.Open == "" || e.OperatingHours.Close == "" {
		return true
	}
	hhmm := now.Format("15:04")
	return hhmm >= e.OperatingHours.Open && hhmm < e.OperatingHours.Close
}

// MaintenanceDue: la próxima inspección o el próximo mantenimiento del
// registro más reciente ya llegó.
func (e Exhibit) MaintenanceDue(now time.Time) bool {
	if e.NextInspection != nil && !now.Before(*e.NextInspection) {
		return true
	}
	var latest *MaintenanceRecord
	for i := range e.MaintenanceRecords {
		if latest == nil || e.MaintenanceRecords[i].Date.After(latest.Date) {
			latest = &e.MaintenanceRecords[i]
		}
	}
	return latest != nil && latest.NextMaintenanceDate != nil && !now.Before(*latest.NextMaintenanceDate)
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
