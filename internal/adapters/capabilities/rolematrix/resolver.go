package rolematrix

import (
	"context"
	"errors"
	"strings"

	"zoo-management/internal/ports/capabilities"
)

// Matrix asigna capabilities por rol. admin tiene todas sin listarlas.
type Matrix map[string][]capabilities.Capability

const roleAdmin = "admin"

// Default refleja la tabla de rutas del sistema: quién puede escribir qué.
func Default() Matrix {
	return Matrix{
		"manager": {
			capabilities.ExhibitsWrite,
			capabilities.ExhibitsMaintain,
			capabilities.StaffWrite,
			capabilities.VisitorsWrite,
			capabilities.TicketsWrite,
			capabilities.ReportsHealth,
			capabilities.ReportsBusiness,
			capabilities.AnalyticsManage,
		},
		"veterinarian": {
			capabilities.AnimalsWrite,
			capabilities.HealthWrite,
			capabilities.FeedingsWrite,
			capabilities.ReportsHealth,
		},
		"animal_care": {
			capabilities.AnimalsWrite,
			capabilities.FeedingsWrite,
		},
		"maintenance": {
			capabilities.ExhibitsMaintain,
		},
		"visitor_services": {
			capabilities.VisitorsWrite,
			capabilities.TicketsWrite,
		},
		"staff": {
			capabilities.VisitorsWrite,
		},
	}
}

type Resolver struct {
	byRole map[string]map[capabilities.Capability]struct{}
}

func NewResolver(m Matrix) *Resolver {
	byRole := make(map[string]map[capabilities.Capability]struct{}, len(m))
	for role, caps := range m {
		set := make(map[capabilities.Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		byRole[strings.ToLower(role)] = set
	}
	return &Resolver{byRole: byRole}
}

func (r *Resolver) HasCapability(ctx context.Context, in capabilities.CapabilityCheck) (bool, error) {
	if strings.TrimSpace(string(in.Capability)) == "" {
		return false, errors.New("capability required")
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == roleAdmin {
		return true, nil
	}
	_, ok := r.byRole[role][in.Capability]
	return ok, nil
}
