package tickets

import (
	"net/http"
	"strings"
	"time"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /tickets y la compra anidada /visitors/{id}/tickets.
// Compra, consulta por ticket id y validación en la entrada son públicas.
func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	write := middleware.Require(resolver, capabilities.TicketsWrite)

	r.Route("/tickets", func(tr chi.Router) {
		tr.Post("/", purchaseHandler(svc))
		tr.Get("/ticket-id/{ticketID}", getByTicketIDHandler(svc))
		tr.Post("/validate/{ticketID}", validateHandler(svc))

		tr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)

			ar.Get("/", listTicketsHandler(svc))
			ar.Get("/stats", statsHandler(svc))
			ar.Get("/today", todayHandler(svc))
			ar.Get("/search", searchTicketsHandler(svc))
			ar.Get("/visitor/{visitorID}", byVisitorHandler(svc))
			ar.Get("/{id}", getTicketHandler(svc))

			ar.With(write).Put("/{id}", updateTicketHandler(svc))
			ar.With(write).Post("/{id}/refund", refundHandler(svc))
			ar.With(middleware.Require(resolver, capabilities.TicketsDelete)).Delete("/{id}", deleteTicketHandler(svc))
		})
	})

	r.Post("/visitors/{visitorID}/tickets", purchaseForVisitorHandler(svc))
}

type purchaseRequest struct {
	VisitorID       string        `json:"visitor_id"`
	Type            Type          `json:"type" enums:"adult,child,senior,student,group,annual_pass,vip"`
	Price           float64       `json:"price"`
	DiscountApplied float64       `json:"discount_applied"`
	DiscountCode    string        `json:"discount_code"`
	PaymentMethod   PaymentMethod `json:"payment_method" enums:"cash,credit_card,debit_card,online,voucher,complimentary"`
	TransactionID   string        `json:"transaction_id"`
	VisitDate       string        `json:"visit_date"` // YYYY-MM-DD
	ValidUntil      string        `json:"valid_until"`
	Notes           string        `json:"notes"`
}

func (req purchaseRequest) toInput() (PurchaseInput, error) {
	visit, err := respond.RequiredDate(req.VisitDate, "visit_date")
	if err != nil {
		return PurchaseInput{}, err
	}
	until, err := respond.OptionalDate(req.ValidUntil, "valid_until")
	if err != nil {
		return PurchaseInput{}, err
	}
	return PurchaseInput{
		VisitorID:       req.VisitorID,
		Type:            req.Type,
		Price:           req.Price,
		DiscountApplied: req.DiscountApplied,
		DiscountCode:    req.DiscountCode,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		VisitDate:       visit,
		ValidUntil:      until,
		Notes:           req.Notes,
	}, nil
}

// updateTicketRequest no permite tocar ticket_id, visitante ni el estado
// de uso o reembolso.
type updateTicketRequest struct {
	Type            *Type          `json:"type"`
	Price           *float64       `json:"price"`
	DiscountApplied *float64       `json:"discount_applied"`
	DiscountCode    *string        `json:"discount_code"`
	PaymentMethod   *PaymentMethod `json:"payment_method"`
	TransactionID   *string        `json:"transaction_id"`
	VisitDate       *string        `json:"visit_date"`
	ValidUntil      *string        `json:"valid_until"`
	Notes           *string        `json:"notes"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// purchaseHandler godoc
// @Summary Comprar ticket
// @Description Público. Genera un ticket id TKT-<ms>-<base36>, lo asocia al visitante y envía la confirmación por mail.
// @Tags tickets
// @Accept json
// @Produce json
// @Param payload body purchaseRequest true "Compra"
// @Success 201 {object} respond.Envelope{data=Ticket}
// @Failure 400 {object} respond.Envelope "validation error or visitor not found"
// @Router /tickets [post]
func purchaseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		t, err := svc.Purchase(r.Context(), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, t)
	}
}

func purchaseForVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		t, err := svc.PurchaseForVisitor(r.Context(), chi.URLParam(r, "visitorID"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, t)
	}
}

func getByTicketIDHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetByTicketID(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, t)
	}
}

// validateHandler godoc
// @Summary Validar ticket en la entrada
// @Description Público. Marca el ticket como usado. 409 si ya se usó o fue reembolsado, 422 si la visita no es hoy.
// @Tags tickets
// @Produce json
// @Param ticketID path string true "Ticket id (TKT-...)"
// @Success 200 {object} respond.Envelope{data=Ticket}
// @Failure 404 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope
// @Failure 422 {object} respond.Envelope
// @Router /tickets/validate/{ticketID} [post]
func validateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Validate(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, t)
	}
}

func listTicketsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		isUsed, err := respond.OptionalBool(r, "is_used")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		refunded, err := respond.OptionalBool(r, "refunded")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		visitDate, err := respond.OptionalDate(r.URL.Query().Get("visit_date"), "visit_date")
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		q := r.URL.Query()
		f := Filter{
			VisitorID:     strings.TrimSpace(q.Get("visitor_id")),
			Type:          Type(strings.TrimSpace(q.Get("type"))),
			PaymentMethod: PaymentMethod(strings.TrimSpace(q.Get("payment_method"))),
			IsUsed:        isUsed,
			Refunded:      refunded,
			Offset:        page.Offset(),
			Limit:         page.Limit,
		}

		var (
			items []Ticket
			total int
		)
		if visitDate != nil {
			items, total, err = svc.ListForVisitDay(r.Context(), f, *visitDate)
		} else {
			items, total, err = svc.List(r.Context(), f)
		}
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

func searchTicketsHandler(svc *Service) http.HandlerFunc {
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

func byVisitorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		items, total, err := svc.ByVisitor(r.Context(), chi.URLParam(r, "visitorID"), page.Offset(), page.Limit)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getTicketHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, t)
	}
}

func updateTicketHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTicketRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		in := UpdateInput{
			Type:            req.Type,
			Price:           req.Price,
			DiscountApplied: req.DiscountApplied,
			DiscountCode:    req.DiscountCode,
			PaymentMethod:   req.PaymentMethod,
			TransactionID:   req.TransactionID,
			Notes:           req.Notes,
		}
		for _, f := range []struct {
			raw  *string
			name string
			dst  **time.Time
		}{
			{req.VisitDate, "visit_date", &in.VisitDate},
			{req.ValidUntil, "valid_until", &in.ValidUntil},
		} {
			if f.raw == nil {
				continue
			}
			t, err := respond.RequiredDate(*f.raw, f.name)
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			*f.dst = &t
		}

		t, err := svc.Update(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, t)
	}
}

func refundHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refundRequest
		if err := respond.DecodeOptional(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		t, err := svc.Refund(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, t)
	}
}

func deleteTicketHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "ticket deleted")
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
