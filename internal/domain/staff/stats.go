package staff

import (
	"context"
	"sort"
	"time"
)

type RoleStats struct {
	Role          Role    `json:"role"`
	Count         int     `json:"count"`
	Active        int     `json:"active"`
	AverageSalary float64 `json:"average_salary"`
}

type DepartmentStats struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
	Active     int    `json:"active"`
}

type Stats struct {
	TotalStaff            int               `json:"total_staff"`
	ActiveStaff           int               `json:"active_staff"`
	InactiveStaff         int               `json:"inactive_staff"`
	AverageRating         float64           `json:"average_rating"`
	AverageYearsOfService float64           `json:"average_years_of_service"`
	RoleBreakdown         []RoleStats       `json:"role_breakdown"`
	DepartmentBreakdown   []DepartmentStats `json:"department_breakdown"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now()), nil
}

// ComputeStats: el rating promedio solo considera personal con evaluaciones.
func ComputeStats(items []Staff, now time.Time) Stats {
	st := Stats{RoleBreakdown: []RoleStats{}, DepartmentBreakdown: []DepartmentStats{}}
	byRole := map[Role]*RoleStats{}
	salaryByRole := map[Role]float64{}
	byDept := map[string]*DepartmentStats{}
	ratingSum, rated, years := 0.0, 0, 0

	for _, m := range items {
		st.TotalStaff++
		if m.IsActive {
			st.ActiveStaff++
		} else {
			st.InactiveStaff++
		}
		years += m.YearsOfService(now)
		if len(m.PerformanceReviews) > 0 {
			ratingSum += m.AverageRating()
			rated++
		}

		rs, ok := byRole[m.Role]
		if !ok {
			rs = &RoleStats{Role: m.Role}
			byRole[m.Role] = rs
		}
		rs.Count++
		salaryByRole[m.Role] += m.Salary

		ds, ok := byDept[m.Department]
		if !ok {
			ds = &DepartmentStats{Department: m.Department}
			byDept[m.Department] = ds
		}
		ds.Count++

		if m.IsActive {
			rs.Active++
			ds.Active++
		}
	}

	if rated > 0 {
		st.AverageRating = round2(ratingSum / float64(rated))
	}
	if st.TotalStaff > 0 {
		st.AverageYearsOfService = round2(float64(years) / float64(st.TotalStaff))
	}

	for role, rs := range byRole {
		rs.AverageSalary = round2(salaryByRole[role] / float64(rs.Count))
		st.RoleBreakdown = append(st.RoleBreakdown, *rs)
	}
	sort.Slice(st.RoleBreakdown, func(i, j int) bool {
		a, b := st.RoleBreakdown[i], st.RoleBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Role < b.Role
	})
	for _, ds := range byDept {
		st.DepartmentBreakdown = append(st.DepartmentBreakdown, *ds)
	}
	sort.Slice(st.DepartmentBreakdown, func(i, j int) bool {
		a, b := st.DepartmentBreakdown[i], st.DepartmentBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Department < b.Department
	})
	return st
}
