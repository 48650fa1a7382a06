// internal/estimate/reconcile.go
package estimate

import (
	"math"

	"nutrilog/internal/models"
)

const (
	// Two estimates within 15% of each other are considered to agree.
	agreementRelDiff = 0.15

	disagreeBaseUncertainty = 0.2
	disagreeMaxUncertainty  = 0.95
)

// Estimate is a scalar calorie opinion from one source, the unit of
// reconciliation between the local estimator and an advisor.
type Estimate struct {
	Kcal        int           `json:"kcal"`
	Uncertainty float64       `json:"uncertainty"`
	Macros      models.Macros `json:"macros,omitempty"`
}

// Reconcile merges two independently produced estimates. A missing side
// passes the other through. Agreeing sides average; disagreeing sides keep
// the primary's calories but raise the uncertainty with the size of the
// disagreement, so a wildly different advisor answer widens the record
// instead of silently replacing it.
func Reconcile(primary, secondary Estimate) Estimate {
	if primary.Kcal <= 0 {
		return secondary
	}
	if secondary.Kcal <= 0 {
		return primary
	}

	a, b := float64(primary.Kcal), float64(secondary.Kcal)
	relDiff := math.Abs(a-b) / math.Max(a, b)

	if relDiff <= agreementRelDiff {
		return Estimate{
			Kcal:        int(math.Round((a + b) / 2)),
			Uncertainty: math.Max(primary.Uncertainty, secondary.Uncertainty),
			Macros:      mergeMacros(primary.Macros, secondary.Macros),
		}
	}

	out := primary
	u := disagreeBaseUncertainty + relDiff
	if u > disagreeMaxUncertainty {
		u = disagreeMaxUncertainty
	}
	if u > out.Uncertainty {
		out.Uncertainty = u
	}
	if out.Macros.Empty() {
		out.Macros = secondary.Macros
	}
	return out
}

// mergeMacros combines macro opinions field by field with the same
// agreement rule as calories: close values average, far ones keep the
// primary.
func mergeMacros(p, s models.Macros) models.Macros {
	return models.Macros{
		ProteinG: mergeMacroField(p.ProteinG, s.ProteinG),
		CarbsG:   mergeMacroField(p.CarbsG, s.CarbsG),
		FatG:     mergeMacroField(p.FatG, s.FatG),
	}
}

func mergeMacroField(p, s float64) float64 {
	switch {
	case p <= 0:
		return s
	case s <= 0:
		return p
	}
	if math.Abs(p-s)/math.Max(p, s) <= agreementRelDiff {
		return (p + s) / 2
	}
	return p
}
