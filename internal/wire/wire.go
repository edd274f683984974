package wire

import (
	"net/http"

	"seat-booking/internal/adaptor"
	"seat-booking/internal/data/cache"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/event"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/middleware"
	"seat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled HTTP router
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes over the given stores
func Wiring(
	repo *repository.Repository,
	seatCache cache.SeatCache,
	events event.Publisher,
	config *utils.Config,
	logger *zap.Logger,
	opts ...usecase.SeatServiceOption,
) *App {
	service := usecase.NewService(repo, seatCache, events, config, logger, opts...)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	// Apply routes
	wireSeat(r, handler.Seat)
	wireLatestSeat(r, handler.LatestSeat)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Welcome to backend home route"))
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})

	return r
}
