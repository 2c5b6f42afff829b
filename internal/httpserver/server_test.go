package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/coach-hub/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                  8080,
		AuthMode:              config.AuthModeJWT,
		AuthEnabled:           true,
		AuthRequired:          true,
		JWTSecret:             "test-secret",
		JWTIssuer:             "coach-hub-test",
		JWTTTLMinutes:         60,
		BcryptCost:            4,
		Blob:                  config.BlobConfig{Mode: config.BlobModeLocal},
		ReportsMaxRangeDays:   90,
		NutritionPageSize:     2,
		NutritionMaxRangeDays: 366,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv.Handler()
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/foods", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected dev auth to be unregistered, got %d", w.Code)
	}
}

func TestServerS3ModeWithoutConfigFails(t *testing.T) {
	cfg := testConfig()
	cfg.Blob.Mode = config.BlobModeS3
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for BLOB_MODE=s3 without S3 settings")
	}
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c client) do(method, path string, body interface{}, want int) map[string]interface{} {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	if w.Code != want {
		c.t.Fatalf("%s %s: expected %d, got %d body=%s", method, path, want, w.Code, w.Body.String())
	}
	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return out
}

func register(t *testing.T, h http.Handler, email, role string) (client, string) {
	t.Helper()
	resp := client{t: t, h: h}.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "name": email, "role": role,
	}, http.StatusCreated)
	user := resp["user"].(map[string]interface{})
	return client{t: t, h: h, token: resp["access_token"].(string)}, user["id"].(string)
}

func idOf(resp map[string]interface{}) string {
	return resp["id"].(string)
}

// TestNutritionFlow builds a weekly-repeating plan over HTTP and reads totals as the athlete.
func TestNutritionFlow(t *testing.T) {
	h := newTestServer(t, testConfig())

	coach, coachID := register(t, h, "coach@example.com", "nutritionist")
	athlete, athleteID := register(t, h, "athlete@example.com", "athlete")

	coach.do(http.MethodPost, "/v1/coach-links", map[string]string{
		"athlete_id": athleteID, "coach_id": coachID, "kind": "nutritionist",
	}, http.StatusCreated)

	food := coach.do(http.MethodPost, "/v1/foods", map[string]interface{}{
		"name": "Chicken breast", "calories_per_100g": 165, "protein_per_100g": 31, "carbs_per_100g": 0, "fat_per_100g": 3.6,
	}, http.StatusCreated)

	plan := coach.do(http.MethodPost, "/v1/diet-plans", map[string]interface{}{
		"athlete_id": athleteID, "start_date": "2025-01-01", "end_date": "2025-01-31",
	}, http.StatusCreated)
	day := coach.do(http.MethodPost, "/v1/diet-plans/"+idOf(plan)+"/days", map[string]interface{}{
		"date": "2025-01-01", "repeat_interval_days": 7,
	}, http.StatusCreated)
	meal := coach.do(http.MethodPost, "/v1/diet-plan-days/"+idOf(day)+"/meals", map[string]interface{}{
		"meal_type": "breakfast", "scheduled_time": "08:00",
	}, http.StatusCreated)
	coach.do(http.MethodPost, "/v1/meals/"+idOf(meal)+"/foods", map[string]interface{}{
		"food_id": food["id"], "quantity_grams": 150,
	}, http.StatusCreated)

	totals := athlete.do(http.MethodGet, "/v1/nutrition/totals?athleteId="+athleteID+"&from=2025-01-01&to=2025-01-15", nil, http.StatusOK)
	grand := totals["grandTotal"].(map[string]interface{})
	if grand["calories"].(float64) != 742.5 {
		t.Fatalf("expected 742.5 kcal over three occurrences, got %v", grand["calories"])
	}
	if totals["includeRepeated"] != true {
		t.Fatalf("expected includeRepeated to default to true")
	}

	history := athlete.do(http.MethodGet, "/v1/nutrition/history?athleteId="+athleteID+"&from=2025-01-08&to=2025-01-08", nil, http.StatusOK)
	meals := history["history"].(map[string]interface{})["2025-01-08"].(map[string]interface{})["meals"].([]interface{})
	if len(meals) != 1 || meals[0].(map[string]interface{})["isRepeated"] != true {
		t.Fatalf("expected one repeated meal on 2025-01-08, got %v", meals)
	}

	stranger, _ := register(t, h, "stranger@example.com", "nutritionist")
	stranger.do(http.MethodGet, "/v1/nutrition/totals?athleteId="+athleteID+"&from=2025-01-01&to=2025-01-15", nil, http.StatusNotFound)
}
