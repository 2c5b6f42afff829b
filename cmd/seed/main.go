package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase  = "http://localhost:8080"
	seedPassword    = "seed-password-1"
	planLengthDays  = 28
	repeatEveryDays = 7
)

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status=%d body=%s", e.status, e.body)
}

// seeder fills a running API with a demo agency: a nutritionist, a trainer,
// an athlete and a four-week diet plan built from one repeating day.
type seeder struct {
	anon    apiClient
	agency  apiClient
	coach   apiClient
	athlete apiClient

	agencyID  string
	coachID   string
	trainerID string
	athleteID string
	foods     map[string]string
	planID    string
	start     time.Time
}

func main() {
	fmt.Println("=== Coach Hub seed ===")

	base := strings.TrimRight(getEnv("SEED_API_BASE_URL", defaultAPIBase), "/")
	httpClient := &http.Client{Timeout: 30 * time.Second}

	s := &seeder{
		anon:  apiClient{baseURL: base, token: getEnv("SEED_TOKEN", ""), http: httpClient},
		foods: make(map[string]string),
		start: time.Now().UTC().Truncate(24 * time.Hour),
	}

	fmt.Printf("API Base: %s\n", base)
	fmt.Printf("Token: %s\n\n", maskString(s.anon.token))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", s.healthz},
		{"Register users", s.registerUsers},
		{"Link coaches", s.linkCoaches},
		{"Create foods", s.createFoods},
		{"Create diet plan", s.createPlan},
		{"Fetch plan totals", s.printTotals},
		{"Create CSV report", s.createReport},
	}

	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("OK\n")
	}

	fmt.Println("\nseed completed")
}

func (s *seeder) healthz() error {
	return s.anon.do(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (s *seeder) registerUsers() error {
	var err error
	if s.agency, s.agencyID, err = s.session("agency@seed.local", "Seed Agency", "agency", ""); err != nil {
		return fmt.Errorf("agency: %w", err)
	}
	if s.coach, s.coachID, err = s.session("coach@seed.local", "Seed Nutritionist", "nutritionist", s.agencyID); err != nil {
		return fmt.Errorf("nutritionist: %w", err)
	}
	if _, s.trainerID, err = s.session("trainer@seed.local", "Seed Trainer", "trainer", s.agencyID); err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	if s.athlete, s.athleteID, err = s.session("athlete@seed.local", "Seed Athlete", "athlete", s.agencyID); err != nil {
		return fmt.Errorf("athlete: %w", err)
	}
	return nil
}

// session registers the user or logs in when the email is already taken.
func (s *seeder) session(email, name, role, agencyID string) (apiClient, string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}

	payload := map[string]string{
		"email": email, "password": seedPassword, "name": name, "role": role,
	}
	if agencyID != "" {
		payload["agency_id"] = agencyID
	}
	err := s.anon.do(http.MethodPost, "/v1/auth/register", payload, http.StatusCreated, &resp)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.status == http.StatusConflict {
		err = s.anon.do(http.MethodPost, "/v1/auth/login", map[string]string{
			"email": email, "password": seedPassword,
		}, http.StatusOK, &resp)
	}
	if err != nil {
		return apiClient{}, "", err
	}

	c := s.anon
	c.token = resp.AccessToken
	return c, resp.User.ID, nil
}

// linkCoaches is done by the agency; reruns tolerate existing links.
func (s *seeder) linkCoaches() error {
	links := []struct{ coachID, kind string }{
		{s.coachID, "nutritionist"},
		{s.trainerID, "trainer"},
	}
	for _, l := range links {
		err := s.agency.do(http.MethodPost, "/v1/coach-links", map[string]string{
			"athlete_id": s.athleteID, "coach_id": l.coachID, "kind": l.kind,
		}, http.StatusCreated, nil)

		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusConflict {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s link: %w", l.kind, err)
		}
	}
	return nil
}

func (s *seeder) createFoods() error {
	foods := []map[string]interface{}{
		{"name": "Oats", "calories_per_100g": 389, "protein_per_100g": 16.9, "carbs_per_100g": 66.3, "fat_per_100g": 6.9},
		{"name": "Chicken breast", "calories_per_100g": 165, "protein_per_100g": 31, "carbs_per_100g": 0, "fat_per_100g": 3.6},
		{"name": "Rice", "calories_per_100g": 130, "protein_per_100g": 2.7, "carbs_per_100g": 28.2, "fat_per_100g": 0.3},
	}
	for _, f := range foods {
		var created struct {
			ID string `json:"id"`
		}
		if err := s.coach.do(http.MethodPost, "/v1/foods", f, http.StatusCreated, &created); err != nil {
			return err
		}
		s.foods[f["name"].(string)] = created.ID
	}
	return nil
}

func (s *seeder) createPlan() error {
	var plan, day struct {
		ID string `json:"id"`
	}

	end := s.start.AddDate(0, 0, planLengthDays-1)
	if err := s.coach.do(http.MethodPost, "/v1/diet-plans", map[string]interface{}{
		"athlete_id": s.athleteID,
		"start_date": formatDate(s.start),
		"end_date":   formatDate(end),
	}, http.StatusCreated, &plan); err != nil {
		return err
	}
	s.planID = plan.ID

	if err := s.coach.do(http.MethodPost, "/v1/diet-plans/"+plan.ID+"/days", map[string]interface{}{
		"date":                 formatDate(s.start),
		"repeat_interval_days": repeatEveryDays,
	}, http.StatusCreated, &day); err != nil {
		return err
	}

	meals := []struct {
		mealType string
		at       string
		items    map[string]float64
	}{
		{"breakfast", "08:00", map[string]float64{"Oats": 80}},
		{"lunch", "13:00", map[string]float64{"Chicken breast": 150, "Rice": 200}},
	}
	for _, m := range meals {
		var meal struct {
			ID string `json:"id"`
		}
		if err := s.coach.do(http.MethodPost, "/v1/diet-plan-days/"+day.ID+"/meals", map[string]interface{}{
			"meal_type": m.mealType, "scheduled_time": m.at,
		}, http.StatusCreated, &meal); err != nil {
			return err
		}
		for name, grams := range m.items {
			if err := s.coach.do(http.MethodPost, "/v1/meals/"+meal.ID+"/foods", map[string]interface{}{
				"food_id": s.foods[name], "quantity_grams": grams,
			}, http.StatusCreated, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) printTotals() error {
	var totals struct {
		GrandTotal struct {
			Calories float64 `json:"calories"`
			Protein  float64 `json:"protein"`
			Carbs    float64 `json:"carbs"`
			Fat      float64 `json:"fat"`
		} `json:"grandTotal"`
	}

	path := fmt.Sprintf("/v1/nutrition/totals?athleteId=%s&from=%s&to=%s",
		s.athleteID, formatDate(s.start), formatDate(s.start.AddDate(0, 0, planLengthDays-1)))
	if err := s.athlete.do(http.MethodGet, path, nil, http.StatusOK, &totals); err != nil {
		return err
	}

	g := totals.GrandTotal
	fmt.Printf("\n  plan %s: %.1f kcal, P %.1f / C %.1f / F %.1f ", s.planID, g.Calories, g.Protein, g.Carbs, g.Fat)
	return nil
}

func (s *seeder) createReport() error {
	var report struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := s.coach.do(http.MethodPost, "/v1/reports", map[string]interface{}{
		"athlete_id": s.athleteID,
		"from":       formatDate(s.start),
		"to":         formatDate(s.start.AddDate(0, 0, repeatEveryDays-1)),
		"format":     "csv",
	}, http.StatusCreated, &report); err != nil {
		return err
	}
	if report.Status != "ready" {
		return fmt.Errorf("report %s status=%s", report.ID, report.Status)
	}
	return nil
}

func (c apiClient) do(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{status: resp.StatusCode, body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
