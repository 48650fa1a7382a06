// internal/cmd/cmd_test.go
package cmd

import (
	"testing"

	"nutrilog/internal/models"
)

func TestMergeProfile(t *testing.T) {
	stored := models.Profile{
		Age: 31, Sex: models.SexFemale, WeightKg: 58,
		RestingHR: 56, MaxHR: 189, Calibration: 1.1,
	}

	merged := mergeProfile(stored, models.Profile{WeightKg: 60})
	if merged.WeightKg != 60 {
		t.Errorf("weight = %v, want flag override 60", merged.WeightKg)
	}
	if merged.Sex != models.SexFemale || merged.Age != 31 {
		t.Errorf("stored fields lost: %+v", merged)
	}

	merged = mergeProfile(stored, models.Profile{Sex: models.SexMale, RestingHR: 60})
	if merged.Sex != models.SexMale || merged.RestingHR != 60 {
		t.Errorf("overrides not applied: %+v", merged)
	}
	if merged.Calibration != 1.1 {
		t.Errorf("calibration = %v, want stored 1.1", merged.Calibration)
	}
}

func TestDatabasePathEnv(t *testing.T) {
	t.Setenv("NUTRILOG_DB", "/tmp/other.db")
	if got := databasePath(); got != "/tmp/other.db" {
		t.Errorf("databasePath() = %q, want env value", got)
	}
}

func TestServeAddressEnv(t *testing.T) {
	t.Setenv("NUTRILOG_ADDR", "127.0.0.1:9000")
	host, port, err := serveAddress()
	if err != nil {
		t.Fatalf("serveAddress() error: %v", err)
	}
	if host != "127.0.0.1" || port != 9000 {
		t.Errorf("got %s:%d, want 127.0.0.1:9000", host, port)
	}

	t.Setenv("NUTRILOG_ADDR", "no-port-here")
	if _, _, err := serveAddress(); err == nil {
		t.Error("expected error for address without port")
	}
}
