package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/fdg312/coach-hub/internal/access"
	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/dietplans"
	"github.com/fdg312/coach-hub/internal/foods"
	"github.com/fdg312/coach-hub/internal/intakes"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/reports"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/storage/postgres"
	"github.com/fdg312/coach-hub/internal/users"
	"github.com/fdg312/coach-hub/internal/workouts"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	s.initStorage()

	if err := s.routes(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// initStorage выбирает Memory или Postgres
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("INFO storage: using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("INFO storage: connecting to PostgreSQL...")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("ERROR: storage: postgres connection failed: %v", err)
		log.Println("WARN storage: fallback to in-memory storage")
		s.storage = memory.New()
		return
	}
	log.Println("INFO storage: PostgreSQL connected")
	s.storage = pgStorage
}

// routes регистрирует маршруты
func (s *Server) routes() error {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	checker := access.NewChecker(s.storage, s.getCoachLinksStorage())

	// Auth API
	authService := auth.NewService(s.config, s.storage)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	if s.config.DevAuthEnabled {
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}

	// Users & coach links
	userHandler := users.NewHandler(users.NewService(s.storage, s.getCoachLinksStorage(), checker))
	s.mux.HandleFunc("GET /v1/users", userHandler.HandleList)
	s.mux.HandleFunc("GET /v1/users/{id}", userHandler.HandleGet)
	s.mux.HandleFunc("DELETE /v1/users/{id}", userHandler.HandleDelete)
	s.mux.HandleFunc("POST /v1/coach-links", userHandler.HandleCreateLink)
	s.mux.HandleFunc("GET /v1/coach-links", userHandler.HandleListLinks)
	s.mux.HandleFunc("DELETE /v1/coach-links/{id}", userHandler.HandleDeleteLink)

	// Foods catalog
	foodHandler := foods.NewHandler(foods.NewService(s.getFoodsStorage(), checker))
	s.mux.HandleFunc("GET /v1/foods", foodHandler.HandleList)
	s.mux.HandleFunc("POST /v1/foods", foodHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/foods/{id}", foodHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/foods/{id}", foodHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/foods/{id}", foodHandler.HandleDelete)

	// Diet plans: plan, day, meal, meal food
	planHandler := dietplans.NewHandlers(dietplans.NewService(s.getDietPlansStorage(), s.getFoodsStorage(), s.storage, checker))
	s.mux.HandleFunc("POST /v1/diet-plans", planHandler.HandleCreatePlan)
	s.mux.HandleFunc("GET /v1/diet-plans", planHandler.HandleListPlans)
	s.mux.HandleFunc("GET /v1/diet-plans/{id}", planHandler.HandleGetPlan)
	s.mux.HandleFunc("PATCH /v1/diet-plans/{id}", planHandler.HandleUpdatePlan)
	s.mux.HandleFunc("DELETE /v1/diet-plans/{id}", planHandler.HandleDeletePlan)
	s.mux.HandleFunc("POST /v1/diet-plans/{id}/days", planHandler.HandleCreateDay)
	s.mux.HandleFunc("GET /v1/diet-plans/{id}/days", planHandler.HandleListDays)
	s.mux.HandleFunc("DELETE /v1/diet-plan-days/{id}", planHandler.HandleDeleteDay)
	s.mux.HandleFunc("POST /v1/diet-plan-days/{id}/meals", planHandler.HandleCreateMeal)
	s.mux.HandleFunc("GET /v1/diet-plan-days/{id}/meals", planHandler.HandleListMeals)
	s.mux.HandleFunc("DELETE /v1/meals/{id}", planHandler.HandleDeleteMeal)
	s.mux.HandleFunc("POST /v1/meals/{id}/foods", planHandler.HandleCreateMealFood)
	s.mux.HandleFunc("GET /v1/meals/{id}/foods", planHandler.HandleListMealFoods)
	s.mux.HandleFunc("DELETE /v1/meal-foods/{id}", planHandler.HandleDeleteMealFood)

	// Nutrition aggregation
	nutritionService := nutrition.NewService(s.getDietPlansStorage(), checker, s.config.NutritionPageSize, s.config.NutritionMaxRangeDays)
	nutritionHandler := nutrition.NewHandlers(nutritionService)
	s.mux.HandleFunc("GET /v1/nutrition/totals", nutritionHandler.HandleTotals)
	s.mux.HandleFunc("GET /v1/nutrition/history", nutritionHandler.HandleHistory)

	// Consumption log
	intakeHandler := intakes.NewHandlers(intakes.NewService(s.getIntakesStorage(), s.getFoodsStorage(), checker, nutritionService))
	s.mux.HandleFunc("POST /v1/intakes", intakeHandler.HandleCreateIntake)
	s.mux.HandleFunc("GET /v1/intakes", intakeHandler.HandleListIntakes)
	s.mux.HandleFunc("GET /v1/intakes/daily", intakeHandler.HandleDaily)
	s.mux.HandleFunc("DELETE /v1/intakes/{id}", intakeHandler.HandleDeleteIntake)

	// Workouts
	workoutHandler := workouts.NewHandlers(workouts.NewService(s.getWorkoutsStorage(), s.storage, checker))
	s.mux.HandleFunc("POST /v1/exercises", workoutHandler.HandleCreateExercise)
	s.mux.HandleFunc("GET /v1/exercises", workoutHandler.HandleListExercises)
	s.mux.HandleFunc("DELETE /v1/exercises/{id}", workoutHandler.HandleDeleteExercise)
	s.mux.HandleFunc("POST /v1/workout-plans", workoutHandler.HandleCreatePlan)
	s.mux.HandleFunc("GET /v1/workout-plans", workoutHandler.HandleListPlans)
	s.mux.HandleFunc("GET /v1/workout-plans/{id}", workoutHandler.HandleGetPlan)
	s.mux.HandleFunc("DELETE /v1/workout-plans/{id}", workoutHandler.HandleDeletePlan)
	s.mux.HandleFunc("POST /v1/workout-plans/{id}/exercises", workoutHandler.HandleAddPlanExercise)
	s.mux.HandleFunc("DELETE /v1/workout-plan-exercises/{id}", workoutHandler.HandleDeletePlanExercise)
	s.mux.HandleFunc("POST /v1/activity-logs", workoutHandler.HandleCreateActivityLog)
	s.mux.HandleFunc("GET /v1/activity-logs", workoutHandler.HandleListActivityLogs)
	s.mux.HandleFunc("DELETE /v1/activity-logs/{id}", workoutHandler.HandleDeleteActivityLog)
	s.mux.HandleFunc("GET /v1/workouts/today", workoutHandler.HandleGetToday)

	// Reports
	reportsStore, _, err := blob.NewBlobStore(context.Background(), s.config.Blob, log.Default())
	if err != nil {
		return fmt.Errorf("init report blob store: %w", err)
	}
	reportHandler := reports.NewHandlers(reports.NewService(
		s.getReportsStorage(), s.storage, nutritionService, checker, reportsStore, s.config.ReportsMaxRangeDays,
	))
	s.mux.HandleFunc("POST /v1/reports", reportHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportHandler.HandleDelete)

	return nil
}

// ============================================================================
// Storage selection
// ============================================================================

func (s *Server) getCoachLinksStorage() storage.CoachLinksStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetCoachLinksStorage()
	case *memory.MemoryStorage:
		return st.GetCoachLinksStorage()
	default:
		return memory.NewCoachLinksMemoryStorage()
	}
}

func (s *Server) getFoodsStorage() storage.FoodsStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetFoodsStorage()
	case *memory.MemoryStorage:
		return st.GetFoodsStorage()
	default:
		return memory.NewFoodsMemoryStorage()
	}
}

func (s *Server) getDietPlansStorage() storage.DietPlansStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetDietPlansStorage()
	case *memory.MemoryStorage:
		return st.GetDietPlansStorage()
	default:
		return memory.NewDietPlansMemoryStorage(memory.NewFoodsMemoryStorage())
	}
}

func (s *Server) getWorkoutsStorage() storage.WorkoutsStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetWorkoutsStorage()
	case *memory.MemoryStorage:
		return st.GetWorkoutsStorage()
	default:
		return memory.NewWorkoutsMemoryStorage()
	}
}

func (s *Server) getIntakesStorage() storage.IntakesStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetIntakesStorage()
	case *memory.MemoryStorage:
		return st.GetIntakesStorage()
	default:
		return memory.NewIntakesMemoryStorage()
	}
}

func (s *Server) getReportsStorage() storage.ReportsStorage {
	switch st := s.storage.(type) {
	case *postgres.PostgresStorage:
		return st.GetReportsStorage()
	case *memory.MemoryStorage:
		return st.GetReportsStorage()
	default:
		return memory.NewReportsMemoryStorage()
	}
}

// ============================================================================
// Handlers
// ============================================================================

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler builds the middleware chain, outermost first: CORS, auth, rate limit, router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = RateLimitMiddleware(s.config, handler)
	handler = s.authMiddleware.Wrap(handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	log.Printf("INFO server: listening on http://localhost%s", addr)
	log.Printf("INFO server: health check http://localhost%s/healthz", addr)

	return http.ListenAndServe(addr, s.Handler())
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
