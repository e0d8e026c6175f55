package router

import (
	"database/sql"
	"net/http"

	mem "pet-adoption/internal/adapters/storage/memory"
	pg "pet-adoption/internal/adapters/storage/postgres"
	"pet-adoption/internal/domain/adoptions"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/posts"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // puede ser nil (signup/login sin token)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	// El lifecycle de la conexión es del caller (main la abre y cierra).
	DB *sql.DB

	Log     logger.Logger
	Metrics *metrics.AdoptionMetrics

	BcryptCost int
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
	r.Handle("/metrics", promhttp.Handler())

	type userStores interface {
		users.Repository
		adoptions.UserStore
		posts.AuthorStore
	}

	var (
		petRepo interface {
			pets.Repository
			adoptions.PetStore
		}
		userRepo userStores
		postRepo posts.Repository
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		userRepo = pg.NewUsersRepo(opts.DB)
		postRepo = pg.NewPostsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		userRepo = mem.NewUserRepo()
		postRepo = mem.NewPostRepo()
	}

	// Services por módulo. El engine de adopciones comparte repos con
	// pets y users: mismo storage, otra vista (custodia + espejo).
	petsSvc := pets.NewService(petRepo)
	adoptionsSvc := adoptions.NewService(petRepo, userRepo)
	postsSvc := posts.NewService(postRepo, userRepo)
	usersSvc := users.NewService(userRepo, adoptionsSvc, postsSvc, opts.BcryptCost)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	adoptions.RegisterRoutes(r, adoptionsSvc, opts.Metrics, opts.Log)
	users.RegisterRoutes(r, usersSvc, petsSvc, postsSvc, opts.TokenIssuer)
	posts.RegisterRoutes(r, postsSvc)

	return r
}
