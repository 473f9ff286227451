package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "zoo-management/docs"
	"zoo-management/internal/adapters/auth/jwtauth"
	"zoo-management/internal/adapters/auth/password"
	"zoo-management/internal/adapters/blob/memstore"
	"zoo-management/internal/adapters/capabilities/rolematrix"
	"zoo-management/internal/adapters/events/logpub"
	"zoo-management/internal/adapters/mail/logmail"
	mem "zoo-management/internal/adapters/storage/memory"
	mdb "zoo-management/internal/adapters/storage/mongo"
	pg "zoo-management/internal/adapters/storage/postgres"
	"zoo-management/internal/domain/analytics"
	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/feedings"
	"zoo-management/internal/domain/health"
	"zoo-management/internal/domain/reports"
	"zoo-management/internal/domain/staff"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/users"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/middleware"
	"zoo-management/internal/platform/cache"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/metrics"
	"zoo-management/internal/platform/respond"
	"zoo-management/internal/ports/auth"
	"zoo-management/internal/ports/blob"
	"zoo-management/internal/ports/capabilities"
	"zoo-management/internal/ports/events"
	"zoo-management/internal/ports/mail"
)

const devJWTSecret = "dev-secret-change-me"

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	// Tokens firma el JWT del login; nil usa un emisor con secreto de desarrollo.
	Tokens   auth.TokenIssuer
	Resolver capabilities.CapabilitiesResolver

	Logger logger.Logger
	// PasswordCost 0 usa el costo por defecto de bcrypt.
	PasswordCost int

	// Opcionales: con Mongo los documentos van al document store y con DB
	// users/staff van a Postgres. Si no, in-memory.
	Mongo *mongo.Database
	DB    *sql.DB

	Cache     cache.Cache
	Publisher events.Publisher
	Mailer    mail.Sender
	Blobs     blob.Store

	Location            *time.Location
	AnalyticsTTL        time.Duration
	TicketIDMaxAttempts int
	FeedingInterval     time.Duration
}

// Services son los services de dominio ya cableados entre sí.
type Services struct {
	Users     *users.Service
	Staff     *staff.Service
	Exhibits  *exhibits.Service
	Animals   *animals.Service
	Health    *health.Service
	Feedings  *feedings.Service
	Visitors  *visitors.Service
	Tickets   *tickets.Service
	Reports   *reports.Service
	Analytics *analytics.Service
}

type repos struct {
	users    users.Repository
	staff    staff.Repository
	exhibits exhibits.Repository
	animals  animals.Repository
	health   health.Repository
	feedings feedings.Repository
	visitors visitors.Repository
	tickets  tickets.Repository
	reports  reports.Repository
}

func newRepos(opts Options) repos {
	var r repos

	if db := opts.Mongo; db != nil {
		r.exhibits = mdb.NewExhibitRepo(db)
		r.animals = mdb.NewAnimalRepo(db)
		r.health = mdb.NewHealthRepo(db)
		r.feedings = mdb.NewFeedingRepo(db)
		r.visitors = mdb.NewVisitorRepo(db)
		r.tickets = mdb.NewTicketRepo(db)
		r.reports = mdb.NewReportRepo(db)
	} else {
		r.exhibits = mem.NewExhibitRepo()
		r.animals = mem.NewAnimalRepo()
		r.health = mem.NewHealthRepo()
		r.feedings = mem.NewFeedingRepo()
		r.visitors = mem.NewVisitorRepo()
		r.tickets = mem.NewTicketRepo()
		r.reports = mem.NewReportRepo()
	}

	if opts.DB != nil {
		r.users = pg.NewUsersRepo(opts.DB)
		r.staff = pg.NewStaffRepo(opts.DB)
	} else {
		r.users = mem.NewUserRepo()
		r.staff = mem.NewStaffRepo()
	}
	return r
}

// Build arma los services; los colaboradores que falten se reemplazan por
// las versiones in-process.
func Build(opts Options) *Services {
	opts = withDefaults(opts)
	r := newRepos(opts)

	exhibitsSvc := exhibits.NewService(r.exhibits)
	staffSvc := staff.NewService(r.staff)

	// analytics se arma al final, pero los demás necesitan su invalidación.
	var analyticsSvc *analytics.Service
	invalidate := func(ctx context.Context) { analyticsSvc.InvalidateQuietly(ctx) }

	animalsSvc := animals.NewService(r.animals, exhibitsSvc,
		animals.WithPublisher(opts.Publisher),
		animals.WithFeedingInterval(opts.FeedingInterval),
		animals.OnChange(invalidate),
	)
	healthSvc := health.NewService(r.health, animalsSvc)
	feedingsSvc := feedings.NewService(r.feedings, animalsSvc)

	visitorsSvc := visitors.NewService(r.visitors,
		visitors.WithPublisher(opts.Publisher),
		visitors.OnChange(invalidate),
	)
	ticketsSvc := tickets.NewService(r.tickets, visitorsSvc,
		tickets.WithMailer(opts.Mailer),
		tickets.WithPublisher(opts.Publisher),
		tickets.WithMaxIDAttempts(opts.TicketIDMaxAttempts),
		tickets.WithLocation(opts.Location),
		tickets.OnChange(invalidate),
	)

	usersSvc := users.NewService(r.users, password.New(opts.PasswordCost), opts.Tokens,
		users.WithMailer(opts.Mailer),
	)

	analyticsSvc = analytics.NewService(analytics.Sources{
		Animals:  animalsSvc,
		Exhibits: exhibitsSvc,
		Visitors: visitorsSvc,
		Tickets:  ticketsSvc,
		Staff:    staffSvc,
	}, opts.Cache,
		analytics.WithTTL(opts.AnalyticsTTL),
		analytics.WithLocation(opts.Location),
	)

	reportsSvc := reports.NewService(r.reports, opts.Blobs, reports.Sources{
		Animals:  animalsSvc,
		Health:   healthSvc,
		Visitors: visitorsSvc,
		Tickets:  ticketsSvc,
		Exhibits: exhibitsSvc,
	},
		reports.WithPublisher(opts.Publisher),
		reports.WithLocation(opts.Location),
	)

	return &Services{
		Users:     usersSvc,
		Staff:     staffSvc,
		Exhibits:  exhibitsSvc,
		Animals:   animalsSvc,
		Health:    healthSvc,
		Feedings:  feedingsSvc,
		Visitors:  visitorsSvc,
		Tickets:   ticketsSvc,
		Reports:   reportsSvc,
		Analytics: analyticsSvc,
	}
}

// Mount registra middlewares y rutas de todos los módulos.
func Mount(s *Services, opts Options) http.Handler {
	opts = withDefaults(opts)
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Recover)
	r.Use(metrics.HTTP)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC(),
		})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	users.RegisterRoutes(r, s.Users, opts.Resolver)
	staff.RegisterRoutes(r, s.Staff, opts.Resolver)
	exhibits.RegisterRoutes(r, s.Exhibits, opts.Resolver)
	animals.RegisterRoutes(r, s.Animals, opts.Resolver)
	health.RegisterRoutes(r, s.Health, opts.Resolver)
	feedings.RegisterRoutes(r, s.Feedings, opts.Resolver)
	visitors.RegisterRoutes(r, s.Visitors, opts.Resolver)
	tickets.RegisterRoutes(r, s.Tickets, opts.Resolver)
	reports.RegisterRoutes(r, s.Reports, opts.Resolver)
	analytics.RegisterRoutes(r, s.Analytics, opts.Resolver)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func NewRouter(opts Options) http.Handler {
	return Mount(Build(opts), opts)
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Resolver == nil {
		opts.Resolver = rolematrix.NewResolver(rolematrix.Default())
	}
	if opts.Tokens == nil {
		tokens, err := jwtauth.New(devJWTSecret, "zoo-management", 24*time.Hour)
		if err != nil {
			panic(err)
		}
		opts.Tokens = tokens
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.Publisher == nil {
		opts.Publisher = logpub.New(opts.Logger)
	}
	if opts.Mailer == nil {
		opts.Mailer = logmail.Sender{}
	}
	if opts.Blobs == nil {
		opts.Blobs = memstore.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.AnalyticsTTL <= 0 {
		opts.AnalyticsTTL = analytics.DefaultTTL
	}
	return opts
}
