package rolematrix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/ports/capabilities"
)

func TestResolver_DefaultMatrix(t *testing.T) {
	r := NewResolver(Default())
	ctx := context.Background()

	cases := []struct {
		role string
		cap  capabilities.Capability
		want bool
	}{
		{"admin", capabilities.UsersManage, true},
		{"ADMIN", capabilities.AnimalsDelete, true},
		{"veterinarian", capabilities.HealthWrite, true},
		{"veterinarian", capabilities.HealthDelete, false},
		{"animal_care", capabilities.HealthWrite, false},
		{"animal_care", capabilities.FeedingsWrite, true},
		{"maintenance", capabilities.ExhibitsMaintain, true},
		{"maintenance", capabilities.ExhibitsWrite, false},
		{"manager", capabilities.ReportsBusiness, true},
		{"manager", capabilities.ReportsDelete, false},
		{"visitor_services", capabilities.TicketsWrite, true},
		{"visitor", capabilities.VisitorsWrite, false},
		{"", capabilities.AnimalsWrite, false},
	}
	for _, tc := range cases {
		got, err := r.HasCapability(ctx, capabilities.CapabilityCheck{Role: tc.role, Capability: tc.cap})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s/%s", tc.role, tc.cap)
	}

	_, err := r.HasCapability(ctx, capabilities.CapabilityCheck{Role: "admin"})
	assert.Error(t, err)
}
