package reports

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeHealth    Type = "health"
	TypeVisitor   Type = "visitor"
	TypeFinancial Type = "financial"
	TypeExhibit   Type = "exhibit"
)

func (t Type) Valid() bool {
	switch t {
	case TypeHealth, TypeVisitor, TypeFinancial, TypeExhibit:
		return true
	}
	return false
}

type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
	PeriodCustom    Period = "custom"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom:
		return true
	}
	return false
}

type Status string

const (
	StatusGenerated Status = "generated"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusGenerated || s == StatusPublished || s == StatusArchived
}

const FormatJSON = "json"

// Report es un snapshot: Data se calcula una vez al generarlo y no cambia.
type Report struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Type            Type            `json:"type"`
	Period          Period          `json:"period"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	GeneratedBy     string          `json:"generated_by"`
	Data            json.RawMessage `json:"data" swaggertype:"object"`
	Summary         string          `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	Format          string          `json:"format"`
	Status          Status          `json:"status"`
	ExportKey       string          `json:"export_key"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
