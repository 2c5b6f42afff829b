package config

import "testing"

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{Endpoint: "https://s3.example.com", Bucket: "reports"}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	tests := []struct {
		name      string
		cfg       S3Config
		wantLevel string
		wantCode  string
	}{
		{"empty", S3Config{}, "INFO", "s3_not_configured"},
		{"partial", S3Config{Endpoint: "https://s3.example.com"}, "WARN", "s3_partial_config"},
		{"ready", S3Config{
			Endpoint:        "https://s3.example.com",
			Region:          "eu-central-1",
			Bucket:          "reports",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}, "INFO", "s3_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code, _ := tt.cfg.Diagnostics()
			if level != tt.wantLevel || code != tt.wantCode {
				t.Fatalf("expected %s/%s, got %s/%s", tt.wantLevel, tt.wantCode, level, code)
			}
		})
	}
}

func TestBlobConfigUseS3(t *testing.T) {
	ready := S3Config{Endpoint: "e", Region: "r", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}

	if (BlobConfig{Mode: BlobModeLocal, S3: ready}).UseS3() {
		t.Fatal("local mode must not use s3")
	}
	if !(BlobConfig{Mode: BlobModeS3}).UseS3() {
		t.Fatal("s3 mode must use s3")
	}
	if (BlobConfig{Mode: BlobModeAuto}).UseS3() {
		t.Fatal("auto mode without settings must not use s3")
	}
	if !(BlobConfig{Mode: BlobModeAuto, S3: ready}).UseS3() {
		t.Fatal("auto mode with settings must use s3")
	}
}

func TestLoadNutritionDefaults(t *testing.T) {
	t.Setenv("NUTRITION_PAGE_SIZE", "")
	t.Setenv("NUTRITION_MAX_RANGE_DAYS", "0")

	cfg := Load()
	if cfg.NutritionPageSize != 100 {
		t.Fatalf("expected page size 100, got %d", cfg.NutritionPageSize)
	}
	if cfg.NutritionMaxRangeDays != 366 {
		t.Fatalf("expected max range 366, got %d", cfg.NutritionMaxRangeDays)
	}
}

func TestLoadAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "siwa")
	t.Setenv("AUTH_REQUIRED", "1")

	cfg := Load()
	if cfg.AuthMode != AuthModeNone || cfg.AuthEnabled || cfg.AuthRequired {
		t.Fatalf("unknown auth mode must fall back to none, got mode=%s enabled=%v required=%v",
			cfg.AuthMode, cfg.AuthEnabled, cfg.AuthRequired)
	}

	t.Setenv("AUTH_MODE", "jwt")
	cfg = Load()
	if !cfg.AuthEnabled || !cfg.AuthRequired {
		t.Fatalf("expected jwt auth enabled and required")
	}
}
