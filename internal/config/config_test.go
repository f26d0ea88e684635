package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want default", cfg.RedisAddr)
	}
	if cfg.SessionTTLHours != 24 {
		t.Errorf("SessionTTLHours = %d, want 24", cfg.SessionTTLHours)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.TelemetryKafkaTopic != "session-authority-telemetry" {
		t.Errorf("TelemetryKafkaTopic = %q, want default", cfg.TelemetryKafkaTopic)
	}
	if cfg.BootstrapToken != "" {
		t.Errorf("BootstrapToken = %q, want empty", cfg.BootstrapToken)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("SESSION_TTL_HOURS", "8")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.SessionTTLHours != 8 {
		t.Errorf("SessionTTLHours = %d, want 8", cfg.SessionTTLHours)
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false}, // Should default to 12
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("GRPC_ADDR", ":8080")
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestSessionTTL(t *testing.T) {
	testCases := []struct {
		name  string
		hours int
		want  time.Duration
	}{
		{"configured", 8, 8 * time.Hour},
		{"zero falls back", 0, DefaultSessionTTL},
		{"negative falls back", -3, DefaultSessionTTL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{SessionTTLHours: tc.hours}
			if got := cfg.SessionTTL(); got != tc.want {
				t.Errorf("SessionTTL = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReaperSweepInterval(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "5m", 5 * time.Minute},
		{"empty", "", 10 * time.Minute},
		{"invalid", "soon", 10 * time.Minute},
		{"negative", "-1m", 10 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{ReaperInterval: tc.value}
			if got := cfg.ReaperSweepInterval(); got != tc.want {
				t.Errorf("ReaperSweepInterval = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTelemetryBrokerList(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple with spaces", "a:9092, b:9092 ,c:9092", []string{"a:9092", "b:9092", "c:9092"}},
		{"trailing comma", "a:9092,", []string{"a:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{TelemetryKafkaBrokers: tc.value}
			got := cfg.TelemetryBrokerList()
			if len(got) != len(tc.want) {
				t.Fatalf("TelemetryBrokerList = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("broker[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}
