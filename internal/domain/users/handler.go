package users

import (
	"net"
	"net/http"
	"strings"

	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver capabilities.CapabilitiesResolver) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc))

		ar.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)
			pr.Get("/profile", profileHandler(svc))
			pr.Put("/profile", updateProfileHandler(svc))
			pr.Post("/change-password", changePasswordHandler(svc))
			pr.Post("/logout", logoutHandler())
		})
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Use(middleware.Require(resolver, capabilities.UsersManage))

		ur.Get("/", listUsersHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Put("/{userID}/role", setRoleHandler(svc))
		ur.Put("/{userID}/active", setActiveHandler(svc))
	})
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type roleRequest struct {
	Role Role `json:"role"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea una cuenta con rol visitor y envía un mail de bienvenida.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} respond.Envelope{data=User}
// @Failure 400 {object} respond.Envelope
// @Failure 409 {object} respond.Envelope "email ya registrado"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		u, err := svc.Register(r.Context(), RegisterInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Password:  req.Password,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusCreated, u)
	}
}

// loginHandler godoc
// @Summary Login
// @Description Cinco intentos fallidos bloquean la cuenta por dos horas.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} respond.Envelope{data=Session}
// @Failure 401 {object} respond.Envelope "credenciales inválidas"
// @Failure 403 {object} respond.Envelope "cuenta bloqueada o inactiva"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			respond.Error(w, r, sentinel.Invalid("email and password are required"))
			return
		}
		sess, err := svc.Login(r.Context(), LoginInput{
			Email:     req.Email,
			Password:  req.Password,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, sess)
	}
}

func profileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, u)
	}
}

func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		claims, _ := middleware.GetClaims(r.Context())
		u, err := svc.UpdateProfile(r.Context(), claims.UserID, ProfileInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, u)
	}
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			respond.Error(w, r, sentinel.Invalid("current_password and new_password are required"))
			return
		}
		claims, _ := middleware.GetClaims(r.Context())
		if err := svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "password changed successfully")
	}
}

// Los tokens son stateless: logout solo confirma; el cliente descarta el token.
func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusOK, "logged out successfully")
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := respond.ParsePage(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		active, err := respond.OptionalBool(r, "is_active")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		q := r.URL.Query()
		items, total, err := svc.List(r.Context(), Filter{
			Role:     Role(strings.TrimSpace(q.Get("role"))),
			IsActive: active,
			Query:    strings.TrimSpace(q.Get("q")),
			Offset:   page.Offset(),
			Limit:    page.Limit,
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.List(w, items, page, total)
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, u)
	}
}

func setRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		u, err := svc.SetRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, u)
	}
}

func setActiveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req activeRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		if req.IsActive == nil {
			respond.Error(w, r, sentinel.Invalid("is_active is required"))
			return
		}
		u, err := svc.SetActive(r.Context(), chi.URLParam(r, "userID"), *req.IsActive)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.OK(w, http.StatusOK, u)
	}
}

// clientIP usa RemoteAddr, que chi RealIP ya reescribe desde X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
