package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "care-access/internal/adapters/storage/memory"
	pg "care-access/internal/adapters/storage/postgres"
	_ "care-access/internal/docs"
	"care-access/internal/domain/access"
	"care-access/internal/domain/accessgrants"
	"care-access/internal/domain/journal"
	"care-access/internal/domain/persons"
	"care-access/internal/middleware"
	"care-access/internal/ports/auth"
	"care-access/internal/ports/directory"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: directorio de usuarios para metadata de display.
	Directory directory.Resolver
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		personsRepo persons.Repository
		grantsRepo  accessgrants.Repository
		journalRepo journal.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			if opened, err := pg.Open(dsn); err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		personsRepo = pg.NewPersonsRepo(db)
		grantsRepo = pg.NewAccessGrantsRepo(db)
		journalRepo = pg.NewJournalRepo(db)
	} else {
		personsRepo = mem.NewPersonsRepo()
		grantsRepo = mem.NewAccessGrantsRepo()
		journalRepo = mem.NewJournalRepo()
	}

	// Services por módulo
	personsSvc := persons.NewService(personsRepo)
	grantsSvc := accessgrants.NewService(grantsRepo, personsSvc)
	if opts.Directory != nil {
		grantsSvc = grantsSvc.WithDirectory(opts.Directory)
	}

	// El motor de decisión: ownership + grants en un solo contrato que
	// consumen todos los colaboradores.
	engine := access.NewEngine(personsSvc, grantsSvc)

	journalSvc := journal.NewService(journalRepo, engine)

	// Rutas por módulo
	persons.RegisterRoutes(r, personsSvc, engine)
	accessgrants.RegisterRoutes(r, grantsSvc, personsSvc, engine)
	journal.RegisterRoutes(r, journalSvc)

	return r
}
