package exhibits

import (
	"net/http"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.ExhibitsWrite)
	maintain := middleware.Require(resolver, capabilities.ExhibitsMaintain)

	r.Route("/exhibits", func(er chi.Router) {
		er.Use(middleware.RequireAuth)

		er.Get("/", listExhibitsHandler(svc))
		er.Get("/stats", statsHandler(svc))
		er.Get("/search", searchExhibitsHandler(svc))
		er.Get("/type/{type}", listByTypeHandler(svc))
		er.Get("/theme/{theme}", listByThemeHandler(svc))
		er.Get("/{exhibitID}", getExhibitHandler(svc))

		er.With(write).Post("/", createExhibitHandler(svc))
		er.With(write).Put("/{exhibitID}", updateExhibitHandler(svc))
		er.With(middleware.Require(resolver, capabilities.ExhibitsDelete)).Delete("/{exhibitID}", deleteExhibitHandler(svc))

		er.With(maintain).Post("/{exhibitID}/maintenance", addMaintenanceHandler(svc))
		er.With(maintain).Put("/{exhibitID}/environmental", updateEnvironmentHandler(svc))
		er.With(write).Post("/{exhibitID}/staff", assignStaffHandler(svc))
		er.With(write).Delete("/{exhibitID}/staff/{staffID}", removeStaffHandler(svc))
	})
}

// createExhibitRequest es el cuerpo para dar de alta un exhibit. La ocupación
// de animales no se acepta: la mantiene el servidor.
type createExhibitRequest struct {
	Name                  string                `json:"name"`
	Type                  Type                  `json:"type" enums:"indoor,outdoor,aquatic,aviary,nocturnal,interactive,educational"`
	Theme                 string                `json:"theme"`
	Description           string                `json:"description"`
	Capacity              Capacity              `json:"capacity"`
	Size                  Size                  `json:"size"`
	Location              Location              `json:"location"`
	Features              []string              `json:"features"`
	EnvironmentalControls EnvironmentalControls `json:"environmental_controls"`
	OperatingHours        OperatingHours        `json:"operating_hours"`
	AdmissionFee          AdmissionFee          `json:"admission_fee"`
	Status                Status                `json:"status" enums:"open,closed,maintenance,renovation,emergency"`
	Notes                 string                `json:"notes"`
}

type updateExhibitRequest struct {
	// Punteros: nil = no tocar.
	Name            *string         `json:"name"`
	Theme           *string         `json:"theme"`
	Description     *string         `json:"description"`
	Capacity        *Capacity       `json:"capacity"`
	Size            *Size           `json:"size"`
	Location        *Location       `json:"location"`
	Features        *[]string       `json:"features"`
	OperatingHours  *OperatingHours `json:"operating_hours"`
	AdmissionFee    *AdmissionFee   `json:"admission_fee"`
	Status          *Status         `json:"status"`
	Notes           *string         `json:"notes"`
	CurrentVisitors *int            `json:"current_visitors"`
}

type maintenanceRequest struct {
	Date                string          `json:"date"` // RFC3339 o YYYY-MM-DD, opcional
	Type                MaintenanceType `json:"type" enums:"routine,repair,cleaning,inspection,upgrade,emergency"`
	Description         string          `json:"description"`
	PerformedBy         string          `json:"performed_by"`
	Cost                float64         `json:"cost"`
	NextMaintenanceDate string          `json:"next_maintenance_date"` // RFC3339 o YYYY-MM-DD, opcional
}

type environmentRequest struct {
	Temperature  *Range  `json:"temperature"`
	Humidity     *Range  `json:"humidity"`
	Lighting     *string `json:"lighting"`
	WaterQuality *string `json:"water_quality"`
}

type assignStaffRequest struct {
	StaffID string `json:"staff_id"`
	Role    string `json:"role"`
}

// createExhibitHandler godoc
// @Summary Crear exhibit
// @Description Crea un exhibit activo con lista de animales vacía. Requiere rol admin o manager.
// @Tags exhibits
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createExhibitRequest true "Datos del exhibit"
// @Success 201 {object} respond.Envelope{data=Exhibit}
// @Failure 400 {object} respond.Envelope "validación"
// @Failure 401 {object} respond.Envelope "authentication required"
// @Failure 403 {object} respond.Envelope "insufficient permissions"
// @Router /exhibits [post]
func createExhibitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExhibitRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		e, err := svc.Create(r.Context(), CreateInput{
			Name:                  req.Name,
			Type:                  req.Type,
			Theme:                 req.Theme,
			Description:           req.Description,
			Capacity:              req.Capacity,
			Size:                  req.Size,
			Location:              req.Location,
			Features:              req.Features,
			EnvironmentalControls: req.EnvironmentalControls,
			OperatingHours:        req.OperatingHours,
			AdmissionFee:          req.AdmissionFee,
			Status:                req.Status,
			Notes:                 req.Notes,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, e)
	}
}

// listExhibitsHandler godoc
// @Summary Listar exhibits
// @Description Lista paginada. Por defecto solo exhibits activos (include_inactive=true para todos).
// @Tags exhibits
// @Produce json
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Tamaño de página 1-100 (default 10)"
// @Param type query string false "Tipo de exhibit"
// @Param theme query string false "Tema"
// @Param status query string false "Estado"
// @Param include_inactive query bool false "Incluir exhibits dados de baja"
// @Success 200 {object} respond.Envelope{data=[]Exhibit}
// @Failure 400 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope
// @Router /exhibits [get]
func listExhibitsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := Filter{
			Type:   Type(strings.TrimSpace(q.Get("type"))),
			Theme:  strings.TrimSpace(q.Get("theme")),
			Status: Status(strings.TrimSpace(q.Get("status"))),
		}
		listWithFilter(w, r, svc, f)
	}
}

func listByTypeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := Type(chi.URLParam(r, "type"))
		if !t.Valid() {
			respond.Error(w, r, sentinel.Invalid("invalid exhibit type"))
			return
		}
		listWithFilter(w, r, svc, Filter{Type: t})
	}
}

func listByThemeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listWithFilter(w, r, svc, Filter{Theme: chi.URLParam(r, "theme")})
	}
}

func listWithFilter(w http.ResponseWriter, r *http.Request, svc *Service, f Filter) {
	page, err := respond.ParsePage(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	includeInactive, err := respond.OptionalBool(r, "include_inactive")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if includeInactive == nil || !*includeInactive {
		active := true
		f.IsActive = &active
	}
	f.Offset, f.Limit = page.Offset(), page.Limit

	items, total, err := svc.List(r.Context(), f)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.List(w, items, page, total)
}

func searchExhibitsHandler(svc *Service) http.HandlerFunc {
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

// getExhibitHandler godoc
// @Summary Obtener exhibit
// @Tags exhibits
// @Produce json
// @Param exhibitID path string true "ID del exhibit"
// @Success 200 {object} respond.Envelope{data=Exhibit}
// @Failure 404 {object} respond.Envelope "exhibit not found"
// @Router /exhibits/{exhibitID} [get]
func getExhibitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetByID(r.Context(), chi.URLParam(r, "exhibitID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, e)
	}
}

// updateExhibitHandler godoc
// @Summary Actualizar exhibit
// @Description Actualización parcial. No permite tocar la lista de animales ni su ocupación; bajar capacity.animals por debajo de los animales actuales devuelve 400.
// @Tags exhibits
// @Accept json
// @Produce json
// @Param exhibitID path string true "ID del exhibit"
// @Param payload body updateExhibitRequest true "Campos a modificar"
// @Success 200 {object} respond.Envelope{data=Exhibit}
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "modificación concurrente"
// @Router /exhibits/{exhibitID} [put]
func updateExhibitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateExhibitRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		e, err := svc.Update(r.Context(), chi.URLParam(r, "exhibitID"), UpdateInput{
			Name:            req.Name,
			Theme:           req.Theme,
			Description:     req.Description,
			Capacity:        req.Capacity,
			Size:            req.Size,
			Location:        req.Location,
			Features:        req.Features,
			OperatingHours:  req.OperatingHours,
			AdmissionFee:    req.AdmissionFee,
			Status:          req.Status,
			Notes:           req.Notes,
			CurrentVisitors: req.CurrentVisitors,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, e)
	}
}

// deleteExhibitHandler godoc
// @Summary Dar de baja exhibit
// @Description Baja lógica (is_active=false). Se rechaza con 400 si todavía tiene animales.
// @Tags exhibits
// @Produce json
// @Param exhibitID path string true "ID del exhibit"
// @Success 200 {object} respond.Envelope
// @Failure 400 {object} respond.Envelope "relocate animals first"
// @Failure 404 {object} respond.Envelope
// @Router /exhibits/{exhibitID} [delete]
func deleteExhibitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Retire(r.Context(), chi.URLParam(r, "exhibitID")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "exhibit retired")
	}
}

// addMaintenanceHandler godoc
// @Summary Registrar mantenimiento
// @Description Un registro de tipo inspection actualiza last_inspection y next_inspection (+6 meses).
// @Tags exhibits
// @Accept json
// @Produce json
// @Param exhibitID path string true "ID del exhibit"
// @Param payload body maintenanceRequest true "Registro de mantenimiento"
// @Success 201 {object} respond.Envelope{data=Exhibit}
// @Failure 400 {object} respond.Envelope
// @Failure 404 {object} respond.Envelope
// @Router /exhibits/{exhibitID}/maintenance [post]
func addMaintenanceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req maintenanceRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		date, err := respond.OptionalDate(req.Date, "date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		next, err := respond.OptionalDate(req.NextMaintenanceDate, "next_maintenance_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		e, err := svc.AddMaintenance(r.Context(), chi.URLParam(r, "exhibitID"), MaintenanceInput{
			Date:                date,
			Type:                req.Type,
			Description:         req.Description,
			PerformedBy:         req.PerformedBy,
			Cost:                req.Cost,
			NextMaintenanceDate: next,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, e)
	}
}

func updateEnvironmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req environmentRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		e, err := svc.UpdateEnvironment(r.Context(), chi.URLParam(r, "exhibitID"), EnvironmentPatch{
			Temperature:  req.Temperature,
			Humidity:     req.Humidity,
			Lighting:     req.Lighting,
			WaterQuality: req.WaterQuality,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, e)
	}
}

func assignStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignStaffRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		e, err := svc.AssignStaff(r.Context(), chi.URLParam(r, "exhibitID"), req.StaffID, req.Role)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, e)
	}
}

func removeStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.RemoveStaff(r.Context(), chi.URLParam(r, "exhibitID"), chi.URLParam(r, "staffID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, e)
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
