package animals

import (
	"net/http"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.AnimalsWrite)

	r.Route("/animals", func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)

		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/stats", statsHandler(svc))
		ar.Get("/search", searchAnimalsHandler(svc))
		ar.Get("/due-health-check", dueHealthCheckHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))

		ar.With(write).Post("/", createAnimalHandler(svc))
		ar.With(write).Put("/{animalID}", updateAnimalHandler(svc))
		ar.With(middleware.Require(resolver, capabilities.AnimalsDelete)).Delete("/{animalID}", deleteAnimalHandler(svc))
		ar.With(write).Post("/{animalID}/feeding", addFeedingEntryHandler(svc))
	})
}

type createAnimalRequest struct {
	Name                string              `json:"name"`
	Species             string              `json:"species"`
	ScientificName      string              `json:"scientific_name"`
	Gender              Gender              `json:"gender" enums:"male,female,unknown"`
	BirthDate           string              `json:"birth_date"`   // RFC3339 o YYYY-MM-DD
	ArrivalDate         string              `json:"arrival_date"` // opcional, default ahora
	Origin              Origin              `json:"origin" enums:"wild,captive_bred,rescue,transfer,donation"`
	ExhibitID           string              `json:"exhibit_id"`
	Status              Status              `json:"status"`
	PhysicalDescription PhysicalDescription `json:"physical_description"`
	Temperament         Temperament         `json:"temperament"`
	Diet                Diet                `json:"diet"`
	Tags                []string            `json:"tags"`
	MicrochipID         string              `json:"microchip_id"`
	RFIDTag             string              `json:"rfid_tag"`
	Notes               string              `json:"notes"`
	IsEndangered        bool                `json:"is_endangered"`
	ConservationStatus  ConservationStatus  `json:"conservation_status"`
}

// updateAnimalRequest no incluye historial médico, fechas de control ni de
// alimentación: se derivan en el servidor.
type updateAnimalRequest struct {
	Name                *string              `json:"name"`
	Species             *string              `json:"species"`
	ScientificName      *string              `json:"scientific_name"`
	Gender              *Gender              `json:"gender"`
	BirthDate           *string              `json:"birth_date"`
	Origin              *Origin              `json:"origin"`
	ExhibitID           *string              `json:"exhibit_id"`
	Status              *Status              `json:"status"`
	PhysicalDescription *PhysicalDescription `json:"physical_description"`
	Temperament         *Temperament         `json:"temperament"`
	Diet                *Diet                `json:"diet"`
	Tags                *[]string            `json:"tags"`
	MicrochipID         *string              `json:"microchip_id"`
	RFIDTag             *string              `json:"rfid_tag"`
	Notes               *string              `json:"notes"`
	IsEndangered        *bool                `json:"is_endangered"`
	ConservationStatus  *ConservationStatus  `json:"conservation_status"`
}

type feedingEntryRequest struct {
	Time                string `json:"time"`
	FoodType            string `json:"food_type"`
	Quantity            string `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

// createAnimalHandler godoc
// @Summary Alta de animal
// @Description Reserva lugar en el exhibit (409 si está lleno, 400 si no existe) y crea el animal.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Datos del animal"
// @Success 201 {object} respond.Envelope{data=Animal}
// @Failure 400 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "exhibit at full capacity"
// @Router /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		birth, err := respond.RequiredDate(req.BirthDate, "birth_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		arrival, err := respond.OptionalDate(req.ArrivalDate, "arrival_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput{
			Name:                req.Name,
			Species:             req.Species,
			ScientificName:      req.ScientificName,
			Gender:              req.Gender,
			BirthDate:           birth,
			ArrivalDate:         arrival,
			Origin:              req.Origin,
			ExhibitID:           req.ExhibitID,
			Status:              req.Status,
			PhysicalDescription: req.PhysicalDescription,
			Temperament:         req.Temperament,
			Diet:                req.Diet,
			Tags:                req.Tags,
			MicrochipID:         req.MicrochipID,
			RFIDTag:             req.RFIDTag,
			Notes:               req.Notes,
			IsEndangered:        req.IsEndangered,
			ConservationStatus:  req.ConservationStatus,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, a)
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Tags animals
// @Produce json
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Param species query string false "Especie (parcial)"
// @Param gender query string false "Género"
// @Param status query string false "Estado"
// @Param exhibit_id query string false "Exhibit"
// @Param is_endangered query bool false "En peligro"
// @Success 200 {object} respond.Envelope{data=[]Animal}
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		endangered, err := respond.OptionalBool(r, "is_endangered")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		includeInactive, err := respond.OptionalBool(r, "include_inactive")
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		q := r.URL.Query()
		f := Filter{
			Species:      strings.TrimSpace(q.Get("species")),
			Gender:       Gender(strings.TrimSpace(q.Get("gender"))),
			Status:       Status(strings.TrimSpace(q.Get("status"))),
			ExhibitID:    strings.TrimSpace(q.Get("exhibit_id")),
			IsEndangered: endangered,
			Offset:       page.Offset(),
			Limit:        page.Limit,
		}
		if includeInactive == nil || !*includeInactive {
			active := true
			f.IsActive = &active
		}

		items, total, err := svc.List(r.Context(), f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func searchAnimalsHandler(svc *Service) http.HandlerFunc {
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

func dueHealthCheckHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.DueForHealthCheck(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, a)
	}
}

// updateAnimalHandler godoc
// @Summary Actualizar animal
// @Description Cambiar exhibit_id mueve el animal: reserva el lugar nuevo (409 si está lleno) y libera el anterior.
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body updateAnimalRequest true "Campos a modificar"
// @Success 200 {object} respond.Envelope{data=Animal}
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope
// @Router /animals/{animalID} [put]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAnimalRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		in := UpdateInput{
			Name:                req.Name,
			Species:             req.Species,
			ScientificName:      req.ScientificName,
			Gender:              req.Gender,
			Origin:              req.Origin,
			ExhibitID:           req.ExhibitID,
			Status:              req.Status,
			PhysicalDescription: req.PhysicalDescription,
			Temperament:         req.Temperament,
			Diet:                req.Diet,
			Tags:                req.Tags,
			MicrochipID:         req.MicrochipID,
			RFIDTag:             req.RFIDTag,
			Notes:               req.Notes,
			IsEndangered:        req.IsEndangered,
			ConservationStatus:  req.ConservationStatus,
		}
		if req.BirthDate != nil {
			birth, err := respond.RequiredDate(*req.BirthDate, "birth_date")
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			in.BirthDate = &birth
		}

		a, err := svc.Update(r.Context(), chi.URLParam(r, "animalID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, a)
	}
}

func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Retire(r.Context(), chi.URLParam(r, "animalID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "animal retired")
	}
}

func addFeedingEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req feedingEntryRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		entry, err := svc.AddFeedingScheduleEntry(r.Context(), chi.URLParam(r, "animalID"), FeedingEntryInput{
			Time:                req.Time,
			FoodType:            req.FoodType,
			Quantity:            req.Quantity,
			SpecialInstructions: req.SpecialInstructions,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, entry)
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
