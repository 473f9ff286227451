package staff

import (
	"net/http"
	"strings"
	"time"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.StaffWrite)

	r.Route("/staff", func(sr chi.Router) {
		sr.Use(middleware.RequireAuth)

		sr.Get("/", listStaffHandler(svc))
		sr.Get("/stats", statsHandler(svc))
		sr.Get("/search", searchStaffHandler(svc))
		sr.Get("/role/{role}", byRoleHandler(svc))
		sr.Get("/department/{department}", byDepartmentHandler(svc))
		sr.Get("/{staffID}", getStaffHandler(svc))

		sr.With(write).Post("/", createStaffHandler(svc))
		sr.With(write).Put("/{staffID}", updateStaffHandler(svc))
		sr.With(write).Post("/{staffID}/training", addTrainingHandler(svc))
		sr.With(write).Post("/{staffID}/review", addReviewHandler(svc))
		sr.With(middleware.Require(resolver, capabilities.StaffDelete)).Delete("/{staffID}", deleteStaffHandler(svc))
	})
}

type createStaffRequest struct {
	EmployeeID       string            `json:"employee_id"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Role             Role              `json:"role"`
	Department       string            `json:"department"`
	Position         string            `json:"position"`
	HireDate         string            `json:"hire_date"` // YYYY-MM-DD
	Salary           float64           `json:"salary"`
	EmergencyContact *EmergencyContact `json:"emergency_contact"`
	Certifications   []string          `json:"certifications"`
	Specializations  []string          `json:"specializations"`
	Languages        []string          `json:"languages"`
	Notes            string            `json:"notes"`
}

type updateStaffRequest struct {
	FirstName        *string           `json:"first_name"`
	LastName         *string           `json:"last_name"`
	Email            *string           `json:"email"`
	Phone            *string           `json:"phone"`
	Role             *Role             `json:"role"`
	Department       *string           `json:"department"`
	Position         *string           `json:"position"`
	HireDate         *string           `json:"hire_date"`
	Salary           *float64          `json:"salary"`
	EmergencyContact *EmergencyContact `json:"emergency_contact"`
	Certifications   []string          `json:"certifications"`
	Specializations  []string          `json:"specializations"`
	Languages        []string          `json:"languages"`
	IsActive         *bool             `json:"is_active"`
	Notes            *string           `json:"notes"`
}

type trainingRequest struct {
	TrainingName   string         `json:"training_name"`
	TrainingDate   string         `json:"training_date"`
	CompletionDate string         `json:"completion_date"`
	Trainer        string         `json:"trainer"`
	DurationHours  float64        `json:"duration_hours"`
	Score          *float64       `json:"score"`
	Status         TrainingStatus `json:"status"`
	Certificate    string         `json:"certificate"`
	Notes          string         `json:"notes"`
}

type reviewRequest struct {
	ReviewDate          string   `json:"review_date"`
	Reviewer            string   `json:"reviewer"`
	Rating              int      `json:"rating"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	Goals               []string `json:"goals"`
	Comments            string   `json:"comments"`
	NextReviewDate      string   `json:"next_review_date"`
}

// createStaffHandler godoc
// @Summary Alta de personal
// @Tags staff
// @Accept json
// @Produce json
// @Param payload body createStaffRequest true "Empleado"
// @Success 201 {object} respond.Envelope{data=Staff}
// @Failure 400 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "employee_id o email duplicado"
// @Router /staff [post]
func createStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createStaffRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		hireDate, err := respond.OptionalDate(req.HireDate, "hire_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		st, err := svc.Create(r.Context(), CreateInput{
			EmployeeID:       req.EmployeeID,
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Email:            req.Email,
			Phone:            req.Phone,
			Role:             req.Role,
			Department:       req.Department,
			Position:         req.Position,
			HireDate:         hireDate,
			Salary:           req.Salary,
			EmergencyContact: req.EmergencyContact,
			Certifications:   req.Certifications,
			Specializations:  req.Specializations,
			Languages:        req.Languages,
			Notes:            req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, st)
	}
}

func listStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := respond.OptionalBool(r, "is_active")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q := r.URL.Query()
		listWithFilter(w, r, svc, Filter{
			Role:       Role(strings.TrimSpace(q.Get("role"))),
			Department: strings.TrimSpace(q.Get("department")),
			IsActive:   active,
		})
	}
}

func byRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := true
		listWithFilter(w, r, svc, Filter{Role: Role(chi.URLParam(r, "role")), IsActive: &active})
	}
}

func byDepartmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := true
		listWithFilter(w, r, svc, Filter{Department: chi.URLParam(r, "department"), IsActive: &active})
	}
}

func listWithFilter(w http.ResponseWriter, r *http.Request, svc *Service, f Filter) {
	page, err := respond.ParsePage(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	f.Offset, f.Limit = page.Offset(), page.Limit

	items, total, err := svc.List(r.Context(), f)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, items, page, total)
}

func searchStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := respond.SearchQuery(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, err := svc.Search(r.Context(), q)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, items)
	}
}

func getStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.GetByID(r.Context(), chi.URLParam(r, "staffID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, st)
	}
}

func updateStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStaffRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		var hireDate *time.Time
		if req.HireDate != nil {
			d, err := respond.RequiredDate(*req.HireDate, "hire_date")
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			hireDate = &d
		}
		st, err := svc.Update(r.Context(), chi.URLParam(r, "staffID"), UpdateInput{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Email:            req.Email,
			Phone:            req.Phone,
			Role:             req.Role,
			Department:       req.Department,
			Position:         req.Position,
			HireDate:         hireDate,
			Salary:           req.Salary,
			EmergencyContact: req.EmergencyContact,
			Certifications:   req.Certifications,
			Specializations:  req.Specializations,
			Languages:        req.Languages,
			IsActive:         req.IsActive,
			Notes:            req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, st)
	}
}

func deleteStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "staffID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "staff member deactivated")
	}
}

func addTrainingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req trainingRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		trainingDate, err := respond.RequiredDate(req.TrainingDate, "training_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		completion, err := respond.OptionalDate(req.CompletionDate, "completion_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rec, err := svc.AddTrainingRecord(r.Context(), chi.URLParam(r, "staffID"), TrainingInput{
			TrainingName:   req.TrainingName,
			TrainingDate:   trainingDate,
			CompletionDate: completion,
			Trainer:        req.Trainer,
			DurationHours:  req.DurationHours,
			Score:          req.Score,
			Status:         req.Status,
			Certificate:    req.Certificate,
			Notes:          req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, rec)
	}
}

// addReviewHandler godoc
// @Summary Registrar evaluación de desempeño
// @Tags staff
// @Accept json
// @Produce json
// @Param staffID path string true "ID del empleado"
// @Param payload body reviewRequest true "Evaluación (rating 1-5)"
// @Success 201 {object} respond.Envelope{data=PerformanceReview}
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Router /staff/{staffID}/review [post]
func addReviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		reviewDate, err := respond.OptionalDate(req.ReviewDate, "review_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		next, err := respond.OptionalDate(req.NextReviewDate, "next_review_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		in := ReviewInput{
			Reviewer:            req.Reviewer,
			Rating:              req.Rating,
			Strengths:           req.Strengths,
			AreasForImprovement: req.AreasForImprovement,
			Goals:               req.Goals,
			Comments:            req.Comments,
			NextReviewDate:      next,
		}
		if reviewDate != nil {
			in.ReviewDate = *reviewDate
		}
		rev, err := svc.AddPerformanceReview(r.Context(), chi.URLParam(r, "staffID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, rev)
	}
}

func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, st)
	}
}
