package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrConflict — нарушение уникальности или ссылочной целостности
	ErrConflict = errors.New("conflict")
)

const (
	RoleAdmin        = "admin"
	RoleAgency       = "agency"
	RoleTrainer      = "trainer"
	RoleNutritionist = "nutritionist"
	RoleAthlete      = "athlete"
)

// IsValidRole — известная роль, включая admin
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAgency, RoleTrainer, RoleNutritionist, RoleAthlete:
		return true
	}
	return false
}

// User — учётная запись платформы (агентство, тренер, нутрициолог, спортсмен)
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	AgencyID     *uuid.UUID // агентство, к которому относится пользователь
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserFilter — фильтр для ListUsers, пустые поля не ограничивают выборку
type UserFilter struct {
	Role     string
	AgencyID *uuid.UUID
}

// Storage — интерфейс для работы с пользователями
type Storage interface {
	// ListUsers возвращает пользователей по фильтру
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)

	// GetUser возвращает пользователя по ID
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	// GetUserByEmail ищет пользователя по email (без учёта регистра)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser создаёт пользователя, ErrConflict если email занят
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser обновляет пользователя
	UpdateUser(ctx context.Context, user *User) error

	// DeleteUser удаляет пользователя
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Close закрывает соединение (для Postgres)
	Close() error
}

const (
	LinkKindTrainer      = "trainer"
	LinkKindNutritionist = "nutritionist"
)

// CoachLink связывает тренера или нутрициолога со спортсменом
type CoachLink struct {
	ID        uuid.UUID
	AthleteID uuid.UUID
	CoachID   uuid.UUID
	Kind      string // trainer | nutritionist
	CreatedAt time.Time
}

type CoachLinkFilter struct {
	AthleteID *uuid.UUID
	CoachID   *uuid.UUID
	Kind      string
}

// CoachLinksStorage — интерфейс для связей тренер/нутрициолог ↔ спортсмен
type CoachLinksStorage interface {
	// CreateCoachLink создаёт связь, ErrConflict при дубликате (athlete, coach, kind)
	CreateCoachLink(ctx context.Context, link *CoachLink) error
	GetCoachLink(ctx context.Context, id uuid.UUID) (*CoachLink, error)
	ListCoachLinks(ctx context.Context, filter CoachLinkFilter) ([]CoachLink, error)
	DeleteCoachLink(ctx context.Context, id uuid.UUID) error
}

// Food — справочный продукт, значения на 100 г. nil означает «не указано».
type Food struct {
	ID              uuid.UUID
	Name            string
	CaloriesPer100g *float64
	ProteinPer100g  *float64
	CarbsPer100g    *float64
	FatPer100g      *float64
	CreatedBy       *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FoodsStorage — интерфейс для справочника продуктов
type FoodsStorage interface {
	CreateFood(ctx context.Context, food *Food) error
	GetFood(ctx context.Context, id uuid.UUID) (*Food, error)
	// ListFoods ищет по подстроке имени, возвращает страницу и общее количество
	ListFoods(ctx context.Context, query string, limit, offset int) ([]Food, int, error)
	UpdateFood(ctx context.Context, food *Food) error
	// DeleteFood удаляет продукт, ErrConflict если он используется в приёмах пищи
	DeleteFood(ctx context.Context, id uuid.UUID) error
}

// DietPlan — план питания спортсмена на период [StartDate, EndDate]
type DietPlan struct {
	ID                 uuid.UUID
	AthleteID          uuid.UUID
	NutritionistID     uuid.UUID
	StartDate          time.Time // UTC полночь
	EndDate            time.Time // UTC полночь, включительно
	TotalDailyCalories *float64
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DietPlanDay — день плана; при RepeatIntervalDays > 0 повторяется каждые N дней
type DietPlanDay struct {
	ID                 uuid.UUID
	DietPlanID         uuid.UUID
	Date               time.Time // якорная дата, UTC полночь
	RepeatIntervalDays int
	CreatedAt          time.Time
}

// Meal — приём пищи внутри дня плана
type Meal struct {
	ID            uuid.UUID
	DietPlanDayID uuid.UUID
	MealType      string
	ScheduledTime string // HH:MM
	OrderIndex    int
	CreatedAt     time.Time
}

// MealFood — продукт в приёме пищи с количеством в граммах
type MealFood struct {
	ID            uuid.UUID
	MealID        uuid.UUID
	FoodID        uuid.UUID
	QuantityGrams float64
	CreatedAt     time.Time
}

type DietPlanFilter struct {
	AthleteID      *uuid.UUID
	NutritionistID *uuid.UUID
}

// MealFoodQuery выбирает продукты всех приёмов пищи из планов спортсмена,
// период которых пересекается с [From, To].
type MealFoodQuery struct {
	AthleteID      uuid.UUID
	NutritionistID *uuid.UUID
	From           time.Time
	To             time.Time
	Limit          int
	Offset         int
}

// MealFoodRow — MealFood вместе с разрешёнными родителями. Любой указатель может
// быть nil, если ссылка не разрешилась.
type MealFoodRow struct {
	MealFood MealFood
	Food     *Food
	Meal     *Meal
	Day      *DietPlanDay
	Plan     *DietPlan
}

// DietPlansStorage — интерфейс для иерархии план → день → приём пищи → продукт.
// Удаление родителя не удаляет детей, это делает сервис.
type DietPlansStorage interface {
	CreateDietPlan(ctx context.Context, plan *DietPlan) error
	GetDietPlan(ctx context.Context, id uuid.UUID) (*DietPlan, error)
	ListDietPlans(ctx context.Context, filter DietPlanFilter) ([]DietPlan, error)
	UpdateDietPlan(ctx context.Context, plan *DietPlan) error
	DeleteDietPlan(ctx context.Context, id uuid.UUID) error

	CreateDietPlanDay(ctx context.Context, day *DietPlanDay) error
	GetDietPlanDay(ctx context.Context, id uuid.UUID) (*DietPlanDay, error)
	ListDietPlanDays(ctx context.Context, planID uuid.UUID) ([]DietPlanDay, error)
	DeleteDietPlanDay(ctx context.Context, id uuid.UUID) error

	CreateMeal(ctx context.Context, meal *Meal) error
	GetMeal(ctx context.Context, id uuid.UUID) (*Meal, error)
	ListMeals(ctx context.Context, dayID uuid.UUID) ([]Meal, error)
	DeleteMeal(ctx context.Context, id uuid.UUID) error

	CreateMealFood(ctx context.Context, mf *MealFood) error
	GetMealFood(ctx context.Context, id uuid.UUID) (*MealFood, error)
	ListMealFoods(ctx context.Context, mealID uuid.UUID) ([]MealFood, error)
	DeleteMealFood(ctx context.Context, id uuid.UUID) error

	// FindMealFoodRows возвращает страницу строк в стабильном порядке
	// (plan_id, day_id, meal_id, meal_food_id)
	FindMealFoodRows(ctx context.Context, q MealFoodQuery) ([]MealFoodRow, error)
}

// Exercise — упражнение из каталога
type Exercise struct {
	ID          uuid.UUID
	Name        string
	Category    string // strength | cardio | mobility | other
	Description string
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
}

// WorkoutPlan — тренировочный план от тренера для спортсмена
type WorkoutPlan struct {
	ID        uuid.UUID
	AthleteID uuid.UUID
	TrainerID uuid.UUID
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkoutPlanExercise — упражнение в плане; DaysMask: бит 0 = понедельник … бит 6 = воскресенье
type WorkoutPlanExercise struct {
	ID          uuid.UUID
	PlanID      uuid.UUID
	ExerciseID  uuid.UUID
	DaysMask    int
	Sets        int
	Reps        int
	WeightKg    *float64
	DurationMin *int
	OrderIndex  int
	Note        string
	CreatedAt   time.Time
}

// ActivityLog — фактически выполненная активность спортсмена
type ActivityLog struct {
	ID             uuid.UUID
	AthleteID      uuid.UUID
	ExerciseID     *uuid.UUID
	PlanExerciseID *uuid.UUID
	PerformedAt    time.Time
	DurationMin    int
	CaloriesBurned *float64
	Note           string
	CreatedAt      time.Time
}

type WorkoutPlanFilter struct {
	AthleteID *uuid.UUID
	TrainerID *uuid.UUID
	// ActiveOn оставляет только планы, действующие на эту дату
	ActiveOn *time.Time
}

// WorkoutsStorage — интерфейс для упражнений, планов тренировок и журнала активности
type WorkoutsStorage interface {
	CreateExercise(ctx context.Context, ex *Exercise) error
	GetExercise(ctx context.Context, id uuid.UUID) (*Exercise, error)
	ListExercises(ctx context.Context, query string, limit, offset int) ([]Exercise, error)
	DeleteExercise(ctx context.Context, id uuid.UUID) error

	CreateWorkoutPlan(ctx context.Context, plan *WorkoutPlan) error
	GetWorkoutPlan(ctx context.Context, id uuid.UUID) (*WorkoutPlan, error)
	ListWorkoutPlans(ctx context.Context, filter WorkoutPlanFilter) ([]WorkoutPlan, error)
	DeleteWorkoutPlan(ctx context.Context, id uuid.UUID) error

	CreatePlanExercise(ctx context.Context, pe *WorkoutPlanExercise) error
	GetPlanExercise(ctx context.Context, id uuid.UUID) (*WorkoutPlanExercise, error)
	ListPlanExercises(ctx context.Context, planID uuid.UUID) ([]WorkoutPlanExercise, error)
	DeletePlanExercise(ctx context.Context, id uuid.UUID) error

	CreateActivityLog(ctx context.Context, entry *ActivityLog) error
	GetActivityLog(ctx context.Context, id uuid.UUID) (*ActivityLog, error)
	// ListActivityLogs возвращает записи с PerformedAt в [from, to)
	ListActivityLogs(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]ActivityLog, error)
	DeleteActivityLog(ctx context.Context, id uuid.UUID) error
}

// ConsumptionLog — фактически съеденный продукт
type ConsumptionLog struct {
	ID            uuid.UUID
	AthleteID     uuid.UUID
	FoodID        uuid.UUID
	QuantityGrams float64
	MealType      string
	ConsumedAt    time.Time
	Note          string
	CreatedAt     time.Time
}

// IntakesStorage — интерфейс для журнала питания
type IntakesStorage interface {
	CreateConsumption(ctx context.Context, entry *ConsumptionLog) error
	GetConsumption(ctx context.Context, id uuid.UUID) (*ConsumptionLog, error)
	// ListConsumption возвращает записи с ConsumedAt в [from, to), по возрастанию времени
	ListConsumption(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]ConsumptionLog, error)
	DeleteConsumption(ctx context.Context, id uuid.UUID) error
}

// ReportMeta — метаданные отчёта по питанию
type ReportMeta struct {
	ID        uuid.UUID
	AthleteID uuid.UUID
	Format    string  // "pdf" or "csv"
	FromDate  string  // YYYY-MM-DD
	ToDate    string  // YYYY-MM-DD
	ObjectKey *string // S3 object key (nil in local mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      []byte // содержимое файла в local режиме (без S3)
}

// ReportsStorage — интерфейс для работы с отчётами
type ReportsStorage interface {
	CreateReport(ctx context.Context, report *ReportMeta) error
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)
	// ListReports возвращает отчёты спортсмена, новые первыми
	ListReports(ctx context.Context, athleteID uuid.UUID, limit, offset int) ([]ReportMeta, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}
