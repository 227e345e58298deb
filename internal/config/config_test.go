package config

import (
	"testing"
	"time"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":         "postgres://localhost:5432/importa",
		"REDIS_URL":            "redis://localhost:6379",
		"JWT_SECRET":           "test-secret",
		"APP_ENV":              "",
		"PORT":                 "",
		"HOME_CURRENCY":        "",
		"ALLOC_DEFAULT_METHOD": "",
		"ALLOC_METHODS":        "",
		"REPORT_CACHE_TTL":     "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HomeCurrency != money.DOP {
		t.Fatalf("expected DOP default, got %s", cfg.HomeCurrency)
	}
	if cfg.AllocDefaultMethod != allocation.MethodByUnits {
		t.Fatalf("expected by_units default, got %s", cfg.AllocDefaultMethod)
	}
	if cfg.ReportCacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m report TTL, got %s", cfg.ReportCacheTTL)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddr())
	}
}

func TestLoadAllocationMethods(t *testing.T) {
	env := baseEnv()
	env["ALLOC_DEFAULT_METHOD"] = "by_fob_value"
	env["ALLOC_METHODS"] = "freight=by_weight, customs=by_fob_value"
	cfg, err := LoadForTests(env)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AllocDefaultMethod != allocation.MethodByFOBValue {
		t.Fatalf("unexpected default method %s", cfg.AllocDefaultMethod)
	}
	if cfg.AllocMethods["freight"] != allocation.MethodByWeight {
		t.Fatalf("unexpected freight method %s", cfg.AllocMethods["freight"])
	}
	if cfg.AllocMethods["customs"] != allocation.MethodByFOBValue {
		t.Fatalf("unexpected customs method %s", cfg.AllocMethods["customs"])
	}
}

func TestLoadRejectsBadMethodConfig(t *testing.T) {
	env := baseEnv()
	env["ALLOC_METHODS"] = "freight=by_vibes"
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error for unknown method")
	}

	env = baseEnv()
	env["ALLOC_METHODS"] = "freight"
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error for malformed pair")
	}
}

func TestLoadRequiresCoreSettings(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error when DATABASE_URL missing")
	}
}
