package reports

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	business := middleware.Require(resolver, capabilities.ReportsBusiness)

	r.Route("/reports", func(rr chi.Router) {
		rr.Use(middleware.RequireAuth)

		rr.Get("/", listReportsHandler(svc))
		rr.Get("/type/{type}", byTypeHandler(svc))
		rr.Get("/{reportID}", getReportHandler(svc))
		rr.Get("/{reportID}/export", exportReportHandler(svc))

		rr.With(middleware.Require(resolver, capabilities.ReportsHealth)).
			Post("/animal-health", generateHandler(svc.GenerateAnimalHealth))
		rr.With(business).Post("/visitor-analytics", generateHandler(svc.GenerateVisitorAnalytics))
		rr.With(business).Post("/financial", generateHandler(svc.GenerateFinancial))
		rr.With(business).Post("/exhibit-occupancy", generateHandler(svc.GenerateExhibitOccupancy))

		rr.With(business).Put("/{reportID}/publish", statusHandler(svc.Publish))
		rr.With(business).Put("/{reportID}/archive", statusHandler(svc.Archive))
		rr.With(middleware.Require(resolver, capabilities.ReportsDelete)).Delete("/{reportID}", deleteReportHandler(svc))
	})
}

type generateRequest struct {
	Title     string `json:"title"`
	Period    Period `json:"period" enums:"daily,weekly,monthly,quarterly,yearly,custom"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// @Summary Generar reporte
// @Description El mismo contrato vale para animal-health, visitor-analytics, financial y exhibit-occupancy. end_date es inclusivo y debe ser posterior a start_date.
// @Tags reports
// @Accept json
// @Produce json
// @Param payload body generateRequest true "Período del reporte"
// @Success 201 {object} respond.Envelope{data=Report}
// @Failure 400 {object} respond.Envelope
// @Failure 403 {object} respond.Envelope
// @Router /reports/financial [post]
func generateHandler(fn func(context.Context, GenerateInput) (Report, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		start, err := respond.RequiredDate(req.StartDate, "start_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		end, err := respond.RequiredDate(req.EndDate, "end_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		claims, _ := middleware.GetClaims(r.Context())

		rep, err := fn(r.Context(), GenerateInput{
			Title:       req.Title,
			Period:      req.Period,
			StartDate:   start,
			EndDate:     end,
			GeneratedBy: claims.UserID,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, rep)
	}
}

func listReportsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q := r.URL.Query()
		items, total, err := svc.List(r.Context(), Filter{
			Type:        Type(q.Get("type")),
			Period:      Period(q.Get("period")),
			Status:      Status(q.Get("status")),
			GeneratedBy: q.Get("generated_by"),
			Offset:      page.Offset(),
			Limit:       page.Limit,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func byTypeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.ByType(r.Context(), Type(chi.URLParam(r, "type")), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.GetByID(r.Context(), chi.URLParam(r, "reportID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, rep)
	}
}

// @Summary Descargar export del reporte
// @Description Devuelve el documento JSON guardado en el blob store al generar el reporte.
// @Tags reports
// @Produce json
// @Param reportID path string true "ID del reporte"
// @Success 200 {object} Report
// @Failure 404 {object} respond.Envelope
// @Router /reports/{reportID}/export [get]
func exportReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, data, err := svc.Export(r.Context(), chi.URLParam(r, "reportID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.json"`, rep.ID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func statusHandler(fn func(context.Context, string) (Report, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := fn(r.Context(), chi.URLParam(r, "reportID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, rep)
	}
}

func deleteReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "reportID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "report deleted")
	}
}
