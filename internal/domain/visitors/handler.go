package visitors

import (
	"net/http"
	"strings"
	"time"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /visitors. El alta es pública (registro desde la web);
// la compra de tickets del visitante la monta el paquete tickets.
func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.VisitorsWrite)

	r.Route("/visitors", func(vr chi.Router) {
		vr.Post("/", createVisitorHandler(svc))

		vr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)

			ar.Get("/", listVisitorsHandler(svc))
			ar.Get("/stats", statsHandler(svc))
			ar.Get("/search", searchVisitorsHandler(svc))
			ar.Get("/email/{email}", getByEmailHandler(svc))
			ar.Get("/{visitorID}", getVisitorHandler(svc))

			ar.With(write).Put("/{visitorID}", updateVisitorHandler(svc))
			ar.With(middleware.Require(resolver, capabilities.VisitorsDelete)).Delete("/{visitorID}", deleteVisitorHandler(svc))
			ar.With(write).Post("/{visitorID}/visits", recordVisitHandler(svc))
			ar.With(write).Post("/{visitorID}/loyalty-points", loyaltyPointsHandler(svc))
		})
	})
}

type membershipRequest struct {
	Type               MembershipType `json:"type" enums:"basic,premium,family,corporate,lifetime"`
	StartDate          string         `json:"start_date"`
	EndDate            string         `json:"end_date"`
	IsActive           *bool          `json:"is_active"` // default true
	Benefits           []string       `json:"benefits"`
	DiscountPercentage float64        `json:"discount_percentage"`
	AutoRenewal        bool           `json:"auto_renewal"`
}

func (m *membershipRequest) toMembership() (*Membership, error) {
	if m == nil {
		return nil, nil
	}
	start, err := respond.RequiredDate(m.StartDate, "membership.start_date")
	if err != nil {
		return nil, err
	}
	end, err := respond.RequiredDate(m.EndDate, "membership.end_date")
	if err != nil {
		return nil, err
	}
	active := true
	if m.IsActive != nil {
		active = *m.IsActive
	}
	return &Membership{
		Type:               m.Type,
		StartDate:          start,
		EndDate:            end,
		IsActive:           active,
		Benefits:           m.Benefits,
		DiscountPercentage: m.DiscountPercentage,
		AutoRenewal:        m.AutoRenewal,
	}, nil
}

type createVisitorRequest struct {
	FirstName           string             `json:"first_name"`
	LastName            string             `json:"last_name"`
	Email               string             `json:"email"`
	Phone               string             `json:"phone"`
	DateOfBirth         string             `json:"date_of_birth"`
	Gender              Gender             `json:"gender" enums:"male,female,other,prefer_not_to_say"`
	Address             Address            `json:"address"`
	EmergencyContact    *EmergencyContact  `json:"emergency_contact"`
	Preferences         Preferences        `json:"preferences"`
	Membership          *membershipRequest `json:"membership"`
	SpecialNeeds        []string           `json:"special_needs"`
	DietaryRestrictions []string           `json:"dietary_restrictions"`
	Allergies           []string           `json:"allergies"`
	Notes               string             `json:"notes"`
	Source              Source             `json:"source" enums:"website,walk_in,referral,social_media,advertisement,other"`
}

// updateVisitorRequest no incluye historial, tickets, puntos ni agregados.
type updateVisitorRequest struct {
	FirstName           *string            `json:"first_name"`
	LastName            *string            `json:"last_name"`
	Email               *string            `json:"email"`
	Phone               *string            `json:"phone"`
	DateOfBirth         *string            `json:"date_of_birth"`
	Gender              *Gender            `json:"gender"`
	Address             *Address           `json:"address"`
	EmergencyContact    *EmergencyContact  `json:"emergency_contact"`
	Preferences         *Preferences       `json:"preferences"`
	Membership          *membershipRequest `json:"membership"`
	SpecialNeeds        *[]string          `json:"special_needs"`
	DietaryRestrictions *[]string          `json:"dietary_restrictions"`
	Allergies           *[]string          `json:"allergies"`
	Notes               *string            `json:"notes"`
	Source              *Source            `json:"source"`
	IsVIP               *bool              `json:"is_vip"`
}

type visitRequest struct {
	VisitDate       string         `json:"visit_date"` // opcional, default ahora
	EntryTime       string         `json:"entry_time"`
	ExitTime        string         `json:"exit_time"`
	Duration        int            `json:"duration"` // minutos
	ExhibitsVisited []ExhibitVisit `json:"exhibits_visited"`
	Spending        Spending       `json:"spending"`
	Feedback        *Feedback      `json:"feedback"`
	GroupSize       int            `json:"group_size"`
	Weather         string         `json:"weather"`
}

type loyaltyPointsRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

type loyaltyPointsResponse struct {
	Visitor     string `json:"visitor"`
	PointsAdded int    `json:"points_added"`
	TotalPoints int    `json:"total_points"`
	Reason      string `json:"reason,omitempty"`
}

// createVisitorHandler godoc
// @Summary Registro de visitante
// @Description Público. 409 si el email ya está registrado.
// @Tags visitors
// @Accept json
// @Produce json
// @Param payload body createVisitorRequest true "Datos del visitante"
// @Success 201 {object} respond.Envelope{data=Visitor}
// @Failure 400 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope
// @Router /visitors [post]
func createVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVisitorRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		dob, err := respond.OptionalDate(req.DateOfBirth, "date_of_birth")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		membership, err := req.Membership.toMembership()
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		v, err := svc.Create(r.Context(), CreateInput{
			FirstName:           req.FirstName,
			LastName:            req.LastName,
			Email:               req.Email,
			Phone:               req.Phone,
			DateOfBirth:         dob,
			Gender:              req.Gender,
			Address:             req.Address,
			EmergencyContact:    req.EmergencyContact,
			Preferences:         req.Preferences,
			Membership:          membership,
			SpecialNeeds:        req.SpecialNeeds,
			DietaryRestrictions: req.DietaryRestrictions,
			Allergies:           req.Allergies,
			Notes:               req.Notes,
			Source:              req.Source,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, v)
	}
}

func listVisitorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		isVIP, err := respond.OptionalBool(r, "is_vip")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		isActive, err := respond.OptionalBool(r, "is_active")
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		q := r.URL.Query()
		items, total, err := svc.List(r.Context(), Filter{
			VIPLevel:       VIPLevel(strings.TrimSpace(q.Get("vip_level"))),
			MembershipType: MembershipType(strings.TrimSpace(q.Get("membership_type"))),
			Source:         Source(strings.TrimSpace(q.Get("source"))),
			IsVIP:          isVIP,
			IsActive:       isActive,
			Offset:         page.Offset(),
			Limit:          page.Limit,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func searchVisitorsHandler(svc *Service) http.HandlerFunc {
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

func getByEmailHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetByEmail(r.Context(), chi.URLParam(r, "email"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

func getVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetByID(r.Context(), chi.URLParam(r, "visitorID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

func updateVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateVisitorRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		membership, err := req.Membership.toMembership()
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		in := UpdateInput{
			FirstName:           req.FirstName,
			LastName:            req.LastName,
			Email:               req.Email,
			Phone:               req.Phone,
			Gender:              req.Gender,
			Address:             req.Address,
			EmergencyContact:    req.EmergencyContact,
			Preferences:         req.Preferences,
			Membership:          membership,
			SpecialNeeds:        req.SpecialNeeds,
			DietaryRestrictions: req.DietaryRestrictions,
			Allergies:           req.Allergies,
			Notes:               req.Notes,
			Source:              req.Source,
			IsVIP:               req.IsVIP,
		}
		if req.DateOfBirth != nil {
			dob, err := respond.RequiredDate(*req.DateOfBirth, "date_of_birth")
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			in.DateOfBirth = &dob
		}

		v, err := svc.Update(r.Context(), chi.URLParam(r, "visitorID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

func deleteVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "visitorID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "visitor deactivated")
	}
}

// recordVisitHandler godoc
// @Summary Registrar visita
// @Description Agrega la visita al historial y recalcula total_visits, total_spent, average_visit_duration y vip_level.
// @Tags visitors
// @Accept json
// @Produce json
// @Param visitorID path string true "ID del visitante"
// @Param payload body visitRequest true "Visita"
// @Success 200 {object} respond.Envelope{data=Visitor}
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Router /visitors/{visitorID}/visits [post]
func recordVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visitRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		times := make([]*time.Time, 3)
		for i, f := range []struct{ value, name string }{
			{req.VisitDate, "visit_date"},
			{req.EntryTime, "entry_time"},
			{req.ExitTime, "exit_time"},
		} {
			t, err := respond.OptionalDate(f.value, f.name)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			times[i] = t
		}

		v, err := svc.RecordVisit(r.Context(), chi.URLParam(r, "visitorID"), VisitInput{
			VisitDate:       times[0],
			EntryTime:       times[1],
			ExitTime:        times[2],
			Duration:        req.Duration,
			ExhibitsVisited: req.ExhibitsVisited,
			Spending:        req.Spending,
			Feedback:        req.Feedback,
			GroupSize:       req.GroupSize,
			Weather:         req.Weather,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, v)
	}
}

func loyaltyPointsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loyaltyPointsRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		v, err := svc.AddLoyaltyPoints(r.Context(), chi.URLParam(r, "visitorID"), req.Points, req.Reason)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, loyaltyPointsResponse{
			Visitor:     v.FullName(),
			PointsAdded: req.Points,
			TotalPoints: v.LoyaltyPoints,
			Reason:      req.Reason,
		})
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
