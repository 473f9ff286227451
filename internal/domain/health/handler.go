package health

import (
	"net/http"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.HealthWrite)

	r.Route("/health-records", func(hr chi.Router) {
		hr.Use(middleware.RequireAuth)

		hr.Get("/", listRecordsHandler(svc))
		hr.Get("/stats", statsHandler(svc))
		hr.Get("/search", searchRecordsHandler(svc))
		hr.Get("/due", dueAnimalsHandler(svc))
		hr.Get("/follow-ups", followUpsDueHandler(svc))
		hr.Get("/animal/{animalID}", listByAnimalHandler(svc))
		hr.Get("/veterinarian/{veterinarian}", listByVeterinarianHandler(svc))
		hr.Get("/{recordID}", getRecordHandler(svc))

		hr.With(write).Post("/", createRecordHandler(svc))
		hr.With(write).Put("/{recordID}", updateRecordHandler(svc))
		hr.With(write).Post("/{recordID}/follow-up", scheduleFollowUpHandler(svc))
		hr.With(middleware.Require(resolver, capabilities.HealthDelete)).Delete("/{recordID}", deleteRecordHandler(svc))
	})

	// Alta de registro médico desde el recurso animal (mismo flujo que POST /health-records).
	r.With(middleware.RequireAuth, write).Post("/animals/{animalID}/medical", createForAnimalHandler(svc))
}

type createRecordRequest struct {
	AnimalID         string       `json:"animal_id"`
	Date             string       `json:"date"` // RFC3339 o YYYY-MM-DD, default ahora
	Veterinarian     string       `json:"veterinarian"`
	Type             Type         `json:"type" enums:"checkup,vaccination,treatment,surgery,emergency,follow_up"`
	Diagnosis        string       `json:"diagnosis"`
	Treatment        string       `json:"treatment"`
	Medication       []Medication `json:"medication"`
	Vitals           Vitals       `json:"vitals"`
	LabResults       []LabResult  `json:"lab_results"`
	Notes            string       `json:"notes"`
	Cost             float64      `json:"cost"`
	FollowUpDate     string       `json:"follow_up_date"`
	FollowUpRequired bool         `json:"follow_up_required"`
	Status           Status       `json:"status" enums:"scheduled,completed,cancelled,pending_followup"`
}

type updateRecordRequest struct {
	Date             *string       `json:"date"`
	Veterinarian     *string       `json:"veterinarian"`
	Type             *Type         `json:"type"`
	Diagnosis        *string       `json:"diagnosis"`
	Treatment        *string       `json:"treatment"`
	Medication       *[]Medication `json:"medication"`
	Vitals           *Vitals       `json:"vitals"`
	LabResults       *[]LabResult  `json:"lab_results"`
	Notes            *string       `json:"notes"`
	Cost             *float64      `json:"cost"`
	FollowUpDate     *string       `json:"follow_up_date"`
	FollowUpRequired *bool         `json:"follow_up_required"`
	Status           *Status       `json:"status"`
}

type followUpRequest struct {
	FollowUpDate string `json:"follow_up_date"`
}

func (req createRecordRequest) input() (CreateInput, error) {
	date, err := respond.OptionalDate(req.Date, "date")
	if err != nil {
		return CreateInput{}, err
	}
	followUp, err := respond.OptionalDate(req.FollowUpDate, "follow_up_date")
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		AnimalID:         req.AnimalID,
		Date:             date,
		Veterinarian:     req.Veterinarian,
		Type:             req.Type,
		Diagnosis:        req.Diagnosis,
		Treatment:        req.Treatment,
		Medication:       req.Medication,
		Vitals:           req.Vitals,
		LabResults:       req.LabResults,
		Notes:            req.Notes,
		Cost:             req.Cost,
		FollowUpDate:     followUp,
		FollowUpRequired: req.FollowUpRequired,
		Status:           req.Status,
	}, nil
}

// createRecordHandler godoc
// @Summary Registrar control de salud
// @Description Guarda el registro, lo agrega al historial del animal y recalcula next_health_check (+6 meses).
// @Tags health
// @Accept json
// @Produce json
// @Param payload body createRecordRequest true "Registro"
// @Success 201 {object} respond.Envelope{data=Record}
// @Failure 400 {object} respond.Envelope "animal not found / validación"
// @Failure 403 {object} respond.Envelope
// @Router /health-records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRecordRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		in, err := req.input()
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rec, err := svc.Create(r.Context(), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, rec)
	}
}

// createForAnimalHandler godoc
// @Summary Agregar registro médico a un animal
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body createRecordRequest true "Registro (animal_id se ignora)"
// @Success 201 {object} respond.Envelope{data=Record}
// @Failure 404 {object} respond.Envelope "animal not found"
// @Router /animals/{animalID}/medical [post]
func createForAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRecordRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		in, err := req.input()
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rec, err := svc.CreateForAnimal(r.Context(), chi.URLParam(r, "animalID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, rec)
	}
}

func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		listWithFilter(w, r, svc, Filter{
			AnimalID:     strings.TrimSpace(q.Get("animal_id")),
			Type:         Type(strings.TrimSpace(q.Get("type"))),
			Status:       Status(strings.TrimSpace(q.Get("status"))),
			Veterinarian: strings.TrimSpace(q.Get("veterinarian")),
		})
	}
}

func listByAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listWithFilter(w, r, svc, Filter{AnimalID: chi.URLParam(r, "animalID")})
	}
}

func listByVeterinarianHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listWithFilter(w, r, svc, Filter{Veterinarian: chi.URLParam(r, "veterinarian")})
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

func searchRecordsHandler(svc *Service) http.HandlerFunc {
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

func dueAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.DueAnimals(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func followUpsDueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.FollowUpsDue(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetByID(r.Context(), chi.URLParam(r, "recordID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, rec)
	}
}

func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRecordRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		in := UpdateInput{
			Veterinarian:     req.Veterinarian,
			Type:             req.Type,
			Diagnosis:        req.Diagnosis,
			Treatment:        req.Treatment,
			Medication:       req.Medication,
			Vitals:           req.Vitals,
			LabResults:       req.LabResults,
			Notes:            req.Notes,
			Cost:             req.Cost,
			FollowUpRequired: req.FollowUpRequired,
			Status:           req.Status,
		}
		if req.Date != nil {
			d, err := respond.RequiredDate(*req.Date, "date")
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			in.Date = &d
		}
		if req.FollowUpDate != nil {
			d, err := respond.OptionalDate(*req.FollowUpDate, "follow_up_date")
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			in.FollowUpDate = d
		}

		rec, err := svc.Update(r.Context(), chi.URLParam(r, "recordID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, rec)
	}
}

func scheduleFollowUpHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req followUpRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		date, err := respond.RequiredDate(req.FollowUpDate, "follow_up_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		rec, err := svc.ScheduleFollowUp(r.Context(), chi.URLParam(r, "recordID"), date)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, rec)
	}
}

func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "recordID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "health record deleted")
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
