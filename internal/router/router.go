package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"hostel-ts/internal/config"
	"hostel-ts/internal/handlers"
	"hostel-ts/internal/lifecycle"
	"hostel-ts/internal/middleware"
	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/service"
	"hostel-ts/internal/storage"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB            handlers.Pinger
	Users         repository.UserRepository
	Profiles      repository.ProfileRepository
	Issues        repository.IssueRepository
	Announcements repository.AnnouncementRepository
	LostFound     repository.LostFoundRepository
	// Media may be nil when object storage is not configured.
	Media         storage.MediaStore
}

const (
	student    = models.RoleStudent
	staff      = models.RoleStaff
	management = models.RoleManagement
)

func New(log zerolog.Logger, cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	r.Use(middleware.WithAuth(log, cfg, d.Profiles))

	// Health
	r.Get("/healthz", handlers.Health(d.DB))

	// Services + handlers
	authSvc := service.NewAuthService(d.Users, d.Profiles, cfg.SessionSecret, cfg.SessionTTL)
	manager := lifecycle.NewManager(d.Issues, d.Profiles, log.With().Str("component", "lifecycle").Logger())

	ah := handlers.NewAuthHTTP(authSvc, d.Users)
	ph := handlers.NewProfileHTTP(d.Profiles)
	ih := handlers.NewIssueHTTP(d.Issues, d.Profiles, manager, log)
	mh := handlers.NewMediaHTTP(d.Media, log)
	anh := handlers.NewAnnouncementHTTP(d.Announcements, d.Profiles)
	lh := handlers.NewLostFoundHTTP(d.LostFound, d.Profiles, log)
	rh := handlers.NewReportsHTTP(service.NewOverviewService(d.Issues))

	r.Route("/api/auth", func(r chi.Router) {
		// Credential guessing gets a much smaller budget than the rest of the API.
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", ah.Login(cfg.Env == "prod"))
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/register", ah.Register())
		r.Post("/logout", ah.Logout())
		r.Get("/me", ah.Me())
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Route("/api/profiles", func(r chi.Router) {
			r.Post("/", ph.Create())
			r.With(middleware.RequireRoles(management)).Get("/", ph.List())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ph.Get())
				r.With(middleware.RequireSelfOrRoles(management)).Patch("/", ph.UpdateBasic())
				r.With(middleware.RequireRoles(management)).Patch("/role", ph.UpdateRole())
			})
		})

		r.Post("/api/media", mh.Upload())

		r.Route("/api/issues", func(r chi.Router) {
			r.Get("/", ih.List())
			r.With(middleware.RequireRoles(student)).Post("/", ih.Create())
			r.Get("/feed", ih.Feed())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ih.Get())
				r.With(middleware.RequireRoles(staff, management)).Post("/status", ih.UpdateStatus())
				r.With(middleware.RequireRoles(management)).Post("/assign", ih.Assign())
				r.Post("/comments", ih.AddComment())
				r.With(middleware.RequireRoles(staff, management)).Get("/remarks", ih.Remarks())
				r.With(middleware.RequireRoles(staff, management)).Post("/remarks", ih.AddRemark())
				r.Put("/like", ih.SetLike(true))
				r.Delete("/like", ih.SetLike(false))
			})
		})

		r.Route("/api/announcements", func(r chi.Router) {
			r.Get("/", anh.List())
			r.With(middleware.RequireRoles(management)).Post("/", anh.Create())
			r.Delete("/comments/{cid}", anh.DeleteComment())
			r.Route("/{id}", func(r chi.Router) {
				r.With(middleware.RequireRoles(management)).Delete("/", anh.Delete())
				r.Get("/comments", anh.Comments())
				r.Post("/comments", anh.AddComment())
			})
		})

		r.Route("/api/lost-found", func(r chi.Router) {
			r.With(middleware.RequireRoles(student, management)).Get("/", lh.List())
			r.With(middleware.RequireRoles(student)).Post("/", lh.Create())
			r.With(middleware.RequireRoles(student)).Post("/photos", mh.UploadTo("lost-found"))
			r.Route("/{id}", func(r chi.Router) {
				r.With(middleware.RequireRoles(student)).Post("/claim", lh.Claim())
				r.With(middleware.RequireRoles(student, management)).Post("/status", lh.UpdateStatus())
			})
		})

		r.With(middleware.RequireRoles(management)).Get("/api/reports/overview", rh.Overview())
	})

	return r
}
