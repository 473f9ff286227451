package staff

import (
	"math"
	"time"
)

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleVeterinarian    Role = "veterinarian"
	RoleAnimalCare      Role = "animal_care"
	RoleMaintenance     Role = "maintenance"
	RoleVisitorServices Role = "visitor_services"
	RoleManager         Role = "manager"
	RoleSecurity        Role = "security"
	RoleEducation       Role = "education"
	RoleConservation    Role = "conservation"
	RoleResearch        Role = "research"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVeterinarian, RoleAnimalCare, RoleMaintenance, RoleVisitorServices,
		RoleManager, RoleSecurity, RoleEducation, RoleConservation, RoleResearch:
		return true
	}
	return false
}

type TrainingStatus string

const (
	TrainingScheduled  TrainingStatus = "scheduled"
	TrainingInProgress TrainingStatus = "in_progress"
	TrainingCompleted  TrainingStatus = "completed"
	TrainingFailed     TrainingStatus = "failed"
)

func (s TrainingStatus) Valid() bool {
	switch s {
	case TrainingScheduled, TrainingInProgress, TrainingCompleted, TrainingFailed:
		return true
	}
	return false
}

type TrainingRecord struct {
	ID             string         `json:"id"`
	TrainingName   string         `json:"training_name"`
	TrainingDate   time.Time      `json:"training_date"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
	Trainer        string         `json:"trainer,omitempty"`
	DurationHours  float64        `json:"duration_hours,omitempty"`
	Score          *float64       `json:"score,omitempty"` // 0-100
	Status         TrainingStatus `json:"status"`
	Certificate    string         `json:"certificate,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type PerformanceReview struct {
	ID                  string     `json:"id"`
	ReviewDate          time.Time  `json:"review_date"`
	Reviewer            string     `json:"reviewer"`
	Rating              int        `json:"rating"` // 1-5
	Strengths           []string   `json:"strengths"`
	AreasForImprovement []string   `json:"areas_for_improvement"`
	Goals               []string   `json:"goals"`
	Comments            string     `json:"comments,omitempty"`
	NextReviewDate      *time.Time `json:"next_review_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
}

type Staff struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`

	Role       Role      `json:"role"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	HireDate   time.Time `json:"hire_date"`
	Salary     float64   `json:"salary"`

	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`

	Certifications     []string            `json:"certifications"`
	Specializations    []string            `json:"specializations"`
	Languages          []string            `json:"languages"`
	TrainingRecords    []TrainingRecord    `json:"training_records"`
	PerformanceReviews []PerformanceReview `json:"performance_reviews"`

	IsActive bool   `json:"is_active"`
	Notes    string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// YearsOfService cuenta aniversarios de contratación cumplidos a now.
func (s Staff) YearsOfService(now time.Time) int {
	if s.HireDate.IsZero() {
		return 0
	}
	years := now.Year() - s.HireDate.Year()
	if now.Month() < s.HireDate.Month() || (now.Month() == s.HireDate.Month() && now.Day() < s.HireDate.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AverageRating devuelve 0 sin evaluaciones.
func (s Staff) AverageRating() float64 {
	if len(s.PerformanceReviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range s.PerformanceReviews {
		sum += r.Rating
	}
	return round2(float64(sum) / float64(len(s.PerformanceReviews)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
