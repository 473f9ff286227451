package feedings

import (
	"net/http"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.FeedingsWrite)

	r.Route("/feedings", func(fr chi.Router) {
		fr.Use(middleware.RequireAuth)

		fr.Get("/", listFeedingsHandler(svc))
		fr.Get("/pending", pendingHandler(svc))
		fr.Get("/today", todayHandler(svc))
		fr.Get("/stats", statsHandler(svc))
		fr.Get("/animal/{animalID}", listByAnimalHandler(svc))
		fr.Get("/exhibit/{exhibitID}", listByExhibitHandler(svc))
		fr.Get("/{feedingID}", getFeedingHandler(svc))

		fr.With(write).Post("/", createFeedingHandler(svc))
		fr.With(write).Put("/{feedingID}", updateFeedingHandler(svc))
		fr.With(write).Post("/{feedingID}/complete", completeFeedingHandler(svc))
		fr.With(middleware.Require(resolver, capabilities.FeedingsDelete)).Delete("/{feedingID}", deleteFeedingHandler(svc))
	})
}

type createFeedingRequest struct {
	AnimalID            string `json:"animal_id"`
	FoodType            string `json:"food_type"`
	Quantity            string `json:"quantity"`
	ScheduledTime       string `json:"scheduled_time"` // HH:MM
	SpecialInstructions string `json:"special_instructions"`
	Notes               string `json:"notes"`
}

type updateFeedingRequest struct {
	FoodType            *string `json:"food_type"`
	Quantity            *string `json:"quantity"`
	ScheduledTime       *string `json:"scheduled_time"`
	SpecialInstructions *string `json:"special_instructions"`
	Notes               *string `json:"notes"`
}

type completeFeedingRequest struct {
	CompletedBy string `json:"completed_by"`
	Notes       string `json:"notes"`
}

// createFeedingHandler godoc
// @Summary Programar alimentación
// @Tags feedings
// @Accept json
// @Produce json
// @Param payload body createFeedingRequest true "Alimentación"
// @Success 201 {object} respond.Envelope{data=Feeding}
// @Failure 400 {object} respond.Envelope "animal not found / validación"
// @Router /feedings [post]
func createFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFeedingRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		f, err := svc.Create(r.Context(), CreateInput{
			AnimalID:            req.AnimalID,
			FoodType:            req.FoodType,
			Quantity:            req.Quantity,
			ScheduledTime:       req.ScheduledTime,
			SpecialInstructions: req.SpecialInstructions,
			Notes:               req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, f)
	}
}

func listFeedingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		completed, err := respond.OptionalBool(r, "completed")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q := r.URL.Query()
		listWithFilter(w, r, svc, Filter{
			AnimalID:  strings.TrimSpace(q.Get("animal_id")),
			ExhibitID: strings.TrimSpace(q.Get("exhibit_id")),
			FoodType:  strings.TrimSpace(q.Get("food_type")),
			Completed: completed,
		})
	}
}

func listByAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listWithFilter(w, r, svc, Filter{AnimalID: chi.URLParam(r, "animalID")})
	}
}

func listByExhibitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listWithFilter(w, r, svc, Filter{ExhibitID: chi.URLParam(r, "exhibitID")})
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

func pendingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.Pending(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func todayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.Today(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.GetByID(r.Context(), chi.URLParam(r, "feedingID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, f)
	}
}

func updateFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateFeedingRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		f, err := svc.Update(r.Context(), chi.URLParam(r, "feedingID"), UpdateInput{
			FoodType:            req.FoodType,
			Quantity:            req.Quantity,
			ScheduledTime:       req.ScheduledTime,
			SpecialInstructions: req.SpecialInstructions,
			Notes:               req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, f)
	}
}

// completeFeedingHandler godoc
// @Summary Marcar alimentación completada
// @Description Solo una vez: la segunda devuelve 409. Actualiza last_fed_at y next_feeding_due del animal.
// @Tags feedings
// @Accept json
// @Produce json
// @Param feedingID path string true "ID de la alimentación"
// @Param payload body completeFeedingRequest true "Quién la completó"
// @Success 200 {object} respond.Envelope{data=Feeding}
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "already completed"
// @Router /feedings/{feedingID}/complete [post]
func completeFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeFeedingRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		f, err := svc.Complete(r.Context(), chi.URLParam(r, "feedingID"), req.CompletedBy, req.Notes)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, f)
	}
}

func deleteFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "feedingID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "feeding deleted")
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
