package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medagenda/backend/internal/transport/http/middleware"
)

// RouterDeps collects everything the router wires together.
type RouterDeps struct {
	AllowedOrigins []string
	Guard          *middleware.Guard
	Auth           *AuthHandler
	OAuth          *OAuthHandler
	Users          *UserHandler
	Roles          *RoleHandler
	Specialties    *SpecialtyHandler
	Institutions   *InstitutionHandler
	Doctors        *DoctorHandler
	Patients       *PatientHandler
	Appointments   *AppointmentHandler
	Reports        *ReportHandler
	WebSocket      http.HandlerFunc
}

// NewRouter builds the full route tree. The guard runs on every request;
// public paths pass through via its allowlist, everything else needs a
// verified identity before the handler executes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger, chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(deps.Guard.CookieAuth)
	r.Use(deps.Guard.RequireAuth)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("medagenda api"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	})

	// Public auth routes (allowlisted in the guard)
	r.Post("/api/auth/login", deps.Auth.Login)
	r.Post("/api/auth/register", deps.Auth.Register)
	if deps.OAuth != nil {
		r.Get("/api/auth/google/login", deps.OAuth.GoogleLogin)
		r.Get("/api/auth/google/callback", deps.OAuth.GoogleCallback)
	}

	// Protected routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/logout", deps.Auth.Logout)
		r.Get("/auth/me", deps.Auth.Me)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", deps.Users.List)
			r.Get("/{id}", deps.Users.Get)
			r.Put("/profile", deps.Users.UpdateProfile)
			r.Put("/password", deps.Users.ChangePassword)
			r.Delete("/{id}", deps.Users.Delete)
			r.Get("/{id}/roles", deps.Roles.UserRoles)
			r.Post("/{id}/roles/{roleID}", deps.Roles.AssignToUser)
			r.Delete("/{id}/roles/{roleID}", deps.Roles.RevokeFromUser)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", deps.Roles.List)
			r.Post("/", deps.Roles.Create)
			r.Get("/{id}", deps.Roles.Get)
			r.Put("/{id}", deps.Roles.Update)
			r.Delete("/{id}", deps.Roles.Delete)
			r.Post("/{id}/permissions/{permissionID}", deps.Roles.GrantPermission)
			r.Delete("/{id}/permissions/{permissionID}", deps.Roles.RevokePermission)
		})

		r.Get("/permissions", deps.Roles.ListPermissions)
		r.Post("/permissions", deps.Roles.CreatePermission)

		r.Route("/specialties", func(r chi.Router) {
			r.Get("/", deps.Specialties.List)
			r.Post("/", deps.Specialties.Create)
			r.Get("/{id}", deps.Specialties.Get)
			r.Put("/{id}", deps.Specialties.Update)
			r.Delete("/{id}", deps.Specialties.Delete)
		})

		r.Route("/institutions", func(r chi.Router) {
			r.Get("/", deps.Institutions.List)
			r.Post("/", deps.Institutions.Create)
			r.Get("/{id}", deps.Institutions.Get)
			r.Put("/{id}", deps.Institutions.Update)
			r.Delete("/{id}", deps.Institutions.Delete)
		})

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", deps.Doctors.List)
			r.Post("/", deps.Doctors.Create)
			r.Get("/{id}", deps.Doctors.Get)
			r.Put("/{id}", deps.Doctors.Update)
			r.Delete("/{id}", deps.Doctors.Delete)
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", deps.Patients.List)
			r.Post("/", deps.Patients.Create)
			r.Get("/{id}", deps.Patients.Get)
			r.Put("/{id}", deps.Patients.Update)
			r.Delete("/{id}", deps.Patients.Delete)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", deps.Appointments.List)
			r.Post("/", deps.Appointments.Create)
			r.Get("/{id}", deps.Appointments.Get)
			r.Put("/{id}", deps.Appointments.Update)
			r.Put("/{id}/status", deps.Appointments.UpdateStatus)
			r.Delete("/{id}", deps.Appointments.Delete)
		})

		r.Get("/reports/appointments", deps.Reports.AppointmentSchedule)
	})

	// WebSocket route; the guard accepted the access_token query parameter
	// for this path, so the handler starts with a verified identity.
	if deps.WebSocket != nil {
		r.Get("/ws", deps.WebSocket)
	}

	return r
}
