// internal/estimate/reconcile_test.go
package estimate

import (
	"math"
	"testing"

	"nutrilog/internal/models"
)

// TestReconcileMissingSides checks pass-through when one side is absent.
func TestReconcileMissingSides(t *testing.T) {
	local := Estimate{Kcal: 300, Uncertainty: 0.2}
	remote := Estimate{Kcal: 280, Uncertainty: 0.1, Macros: models.Macros{ProteinG: 20}}

	if got := Reconcile(Estimate{}, remote); got != remote {
		t.Errorf("Reconcile(zero, remote) = %+v, want remote", got)
	}
	if got := Reconcile(local, Estimate{}); got != local {
		t.Errorf("Reconcile(local, zero) = %+v, want local", got)
	}
	if got := Reconcile(Estimate{}, Estimate{}); got.Kcal != 0 {
		t.Errorf("Reconcile(zero, zero) = %+v, want zero", got)
	}
}

// TestReconcileAgreement checks averaging inside the 15% band.
func TestReconcileAgreement(t *testing.T) {
	got := Reconcile(
		Estimate{Kcal: 100, Uncertainty: 0.2},
		Estimate{Kcal: 105, Uncertainty: 0.1},
	)
	if got.Kcal != 102 && got.Kcal != 103 {
		t.Errorf("Reconcile(100, 105).Kcal = %d, want 102 or 103", got.Kcal)
	}
	if got.Uncertainty != 0.2 {
		t.Errorf("agreement uncertainty = %v, want the larger input 0.2", got.Uncertainty)
	}

	// Exactly 15% apart still agrees.
	got = Reconcile(
		Estimate{Kcal: 85, Uncertainty: 0.15},
		Estimate{Kcal: 100, Uncertainty: 0.15},
	)
	if got.Kcal != 92 && got.Kcal != 93 {
		t.Errorf("Reconcile(85, 100).Kcal = %d, want the average", got.Kcal)
	}
}

// TestReconcileDisagreement checks that a wild advisor answer widens the
// record instead of replacing it.
func TestReconcileDisagreement(t *testing.T) {
	got := Reconcile(
		Estimate{Kcal: 100, Uncertainty: 0.2},
		Estimate{Kcal: 400, Uncertainty: 0.1},
	)
	if got.Kcal != 100 {
		t.Errorf("disagreement kept %d kcal, want the primary 100", got.Kcal)
	}
	if got.Uncertainty < 0.5 {
		t.Errorf("disagreement uncertainty = %v, want >= 0.5 for a 4x split", got.Uncertainty)
	}
	if got.Uncertainty > 0.95 {
		t.Errorf("uncertainty = %v, beyond the 0.95 cap", got.Uncertainty)
	}

	// Moderate disagreement: 0.2 + relative difference.
	got = Reconcile(
		Estimate{Kcal: 100, Uncertainty: 0.2},
		Estimate{Kcal: 130, Uncertainty: 0.2},
	)
	want := 0.2 + 30.0/130.0
	if math.Abs(got.Uncertainty-want) > 1e-9 {
		t.Errorf("uncertainty = %v, want %v", got.Uncertainty, want)
	}

	// Reconciliation never lowers an already-wide uncertainty.
	got = Reconcile(
		Estimate{Kcal: 100, Uncertainty: 0.6},
		Estimate{Kcal: 130, Uncertainty: 0.1},
	)
	if got.Uncertainty != 0.6 {
		t.Errorf("uncertainty lowered to %v, want kept at 0.6", got.Uncertainty)
	}
}

// TestReconcileMacros checks macro merging on both paths.
func TestReconcileMacros(t *testing.T) {
	primary := Estimate{Kcal: 500, Uncertainty: 0.2}
	secondary := Estimate{
		Kcal:        520,
		Uncertainty: 0.15,
		Macros:      models.Macros{ProteinG: 30, CarbsG: 60, FatG: 15},
	}

	got := Reconcile(primary, secondary)
	if got.Macros != secondary.Macros {
		t.Errorf("empty primary macros should adopt secondary's, got %+v", got.Macros)
	}

	primary.Macros = models.Macros{ProteinG: 28, CarbsG: 100}
	got = Reconcile(primary, secondary)
	if math.Abs(got.Macros.ProteinG-29) > 1e-9 { // close: averaged
		t.Errorf("protein = %v, want 29", got.Macros.ProteinG)
	}
	if got.Macros.CarbsG != 100 { // far apart: primary wins
		t.Errorf("carbs = %v, want 100", got.Macros.CarbsG)
	}
	if got.Macros.FatG != 15 { // only secondary had it
		t.Errorf("fat = %v, want 15", got.Macros.FatG)
	}

	// Disagreeing calories still adopt macros the primary lacks.
	got = Reconcile(Estimate{Kcal: 100, Uncertainty: 0.2}, secondary)
	if got.Macros != secondary.Macros {
		t.Errorf("disagreement dropped macros: %+v", got.Macros)
	}
}
