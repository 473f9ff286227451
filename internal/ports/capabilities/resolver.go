package capabilities

import "context"

// Capability es una acción protegida sobre un recurso ("animals:write").
type Capability string

const (
	AnimalsWrite  Capability = "animals:write"
	AnimalsDelete Capability = "animals:delete"

	HealthWrite  Capability = "health:write"
	HealthDelete Capability = "health:delete"

	FeedingsWrite  Capability = "feedings:write"
	FeedingsDelete Capability = "feedings:delete"

	ExhibitsWrite    Capability = "exhibits:write"
	ExhibitsMaintain Capability = "exhibits:maintain"
	ExhibitsDelete   Capability = "exhibits:delete"

	StaffWrite  Capability = "staff:write"
	StaffDelete Capability = "staff:delete"

	VisitorsWrite  Capability = "visitors:write"
	VisitorsDelete Capability = "visitors:delete"

	TicketsWrite  Capability = "tickets:write"
	TicketsDelete Capability = "tickets:delete"

	ReportsHealth   Capability = "reports:health"
	ReportsBusiness Capability = "reports:business"
	ReportsDelete   Capability = "reports:delete"

	AnalyticsManage Capability = "analytics:manage"
	UsersManage     Capability = "users:manage"
)

// CapabilityCheck es la pregunta "¿este principal puede hacer X?".
type CapabilityCheck struct {
	UserID     string
	Role       string
	Capability Capability
}

type CapabilitiesResolver interface {
	HasCapability(ctx context.Context, in CapabilityCheck) (bool, error)
}
