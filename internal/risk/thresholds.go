package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/cardio-risk-engine/internal/domain"
)

// minCohortAge is the youngest age the cohort table covers. Lookups below
// it return not-found rather than an extrapolated guess.
const minCohortAge = 30

// Future-risk projection constants: a fixed annual increment with an
// age-dependent accelerator past 55, sampled every 5 years for 20 years,
// capped at 100.
const (
	projectionAnnualIncrement = 0.6
	projectionAccelerator     = 1.5
	projectionAcceleratorAge  = 55
	projectionStepYears       = 5
	projectionHorizonYears    = 20
)

// biologicalAgeSlope converts score deviation from the mid-range pivot
// into years. A heuristic, not a validated clinical estimator.
const (
	biologicalAgeSlope = 0.25
	biologicalAgePivot = 40.0
)

// CohortThresholds is one immutable gender x age-decade cell: five strictly
// increasing band boundaries spanning [0,100], biomarker targets, narrative
// guidance per band and screening cadence.
type CohortThresholds struct {
	Gender      domain.Sex `json:"gender"`
	DecadeStart int        `json:"decade_start"`
	DecadeEnd   int        `json:"decade_end"`

	// Boundaries are the upper bounds of the five bands, in ascending
	// order; the last boundary is always 100.
	Boundaries     [5]float64 `json:"boundaries"`
	PopulationMean float64    `json:"population_mean"`

	Guidance  [5]string                `json:"guidance"`
	Targets   domain.BiomarkerTargets  `json:"targets"`
	Screening domain.ScreeningCadence  `json:"screening"`
}

// Name returns a stable identifier like "male-50s" or "female-80plus".
func (c *CohortThresholds) Name() string {
	if c.DecadeStart >= 80 {
		return fmt.Sprintf("%s-80plus", c.Gender)
	}
	return fmt.Sprintf("%s-%ds", c.Gender, c.DecadeStart)
}

// Validate checks the cell's internal consistency: five strictly increasing
// boundaries partitioning [0,100].
func (c *CohortThresholds) Validate() error {
	prev := 0.0
	for i, b := range c.Boundaries {
		if b <= prev {
			return domain.NewConfigurationError(c.Name(),
				fmt.Sprintf("band boundary %d (%v) not strictly increasing", i, b))
		}
		prev = b
	}
	if c.Boundaries[4] != 100 {
		return domain.NewConfigurationError(c.Name(), "top boundary must be 100")
	}
	if c.PopulationMean <= 0 || c.PopulationMean >= 100 {
		return domain.NewConfigurationError(c.Name(),
			fmt.Sprintf("population mean %v outside (0,100)", c.PopulationMean))
	}
	return nil
}

// CategorizeByAge re-applies the cell's own boundaries, which are more
// permissive for older cohorts than the population-level bands used by
// Stratify. Boundary ownership matches Stratify: an exact boundary belongs
// to the higher band.
func (c *CohortThresholds) CategorizeByAge(score float64) domain.RiskCategory {
	score = clamp(score, 0, 100)
	categories := [5]domain.RiskCategory{
		domain.VERY_LOW, domain.LOW, domain.MODERATE, domain.HIGH, domain.VERY_HIGH,
	}
	for i := 0; i < 4; i++ {
		if score < c.Boundaries[i] {
			return categories[i]
		}
	}
	return categories[4]
}

// GuidanceFor returns the cell's narrative guidance for the band the score
// falls into under the cell's own boundaries.
func (c *CohortThresholds) GuidanceFor(score float64) string {
	score = clamp(score, 0, 100)
	for i := 0; i < 4; i++ {
		if score < c.Boundaries[i] {
			return c.Guidance[i]
		}
	}
	return c.Guidance[4]
}

// CompareToCohortAverage computes the percentage deviation of the score
// from the cell's fixed population mean and buckets it into one of five
// qualitative descriptors.
func (c *CohortThresholds) CompareToCohortAverage(score float64) (descriptor string, deviationPct float64) {
	deviationPct = (score - c.PopulationMean) / c.PopulationMean * 100

	switch {
	case deviationPct < -30:
		descriptor = "significantly below average"
	case deviationPct < -10:
		descriptor = "below average"
	case deviationPct <= 10:
		descriptor = "average"
	case deviationPct <= 30:
		descriptor = "above average"
	default:
		descriptor = "significantly above average"
	}
	return descriptor, deviationPct
}

// EstimateBiologicalAge adds a linear heuristic offset proportional to the
// risk score to the chronological age. Documented as a heuristic, not a
// validated clinical estimator.
func EstimateBiologicalAge(chronoAge, score float64) float64 {
	bio := chronoAge + (clamp(score, 0, 100)-biologicalAgePivot)*biologicalAgeSlope
	return math.Round(bio*10) / 10
}

// ProjectFutureRisk linearly extrapolates the score with a fixed annual
// increment, applying the age accelerator for each year past 55, capped at
// 100 and sampled every 5 years over a 20-year horizon.
func (c *CohortThresholds) ProjectFutureRisk(age, score float64) []domain.ProjectedRisk {
	projections := make([]domain.ProjectedRisk, 0, projectionHorizonYears/projectionStepYears)
	projected := clamp(score, 0, 100)

	for year := 1; year <= projectionHorizonYears; year++ {
		increment := projectionAnnualIncrement
		if age+float64(year) > projectionAcceleratorAge {
			increment *= projectionAccelerator
		}
		projected = math.Min(projected+increment, 100)
		if year%projectionStepYears == 0 {
			projections = append(projections, domain.ProjectedRisk{
				YearsAhead: year,
				Age:        int(age) + year,
				Score:      math.Round(projected*10) / 10,
			})
		}
	}
	return projections
}

// cohortKey addresses one gender x age-decade cell.
type cohortKey struct {
	gender domain.Sex
	decade int
}

// CohortTable is the age/gender-keyed lookup of risk-band boundaries,
// biomarker targets and monitoring cadence. Loaded once at process start
// and read-only thereafter.
type CohortTable struct {
	cells map[cohortKey]*CohortThresholds
}

// Lookup returns the cell covering the given age and gender, or false when
// the age falls below the minimum covered cohort.
func (t *CohortTable) Lookup(age float64, gender domain.Sex) (*CohortThresholds, bool) {
	if age < minCohortAge {
		return nil, false
	}
	decade := int(age/10) * 10
	if decade > 80 {
		decade = 80
	}
	cell, ok := t.cells[cohortKey{gender: gender, decade: decade}]
	return cell, ok
}

// Cells returns all cells in deterministic order, for validation and
// completeness checks.
func (t *CohortTable) Cells() []*CohortThresholds {
	out := make([]*CohortThresholds, 0, len(t.cells))
	for _, c := range t.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gender != out[j].Gender {
			return out[i].Gender < out[j].Gender
		}
		return out[i].DecadeStart < out[j].DecadeStart
	})
	return out
}

// Validate checks every cell; any inconsistency is fatal at startup.
func (t *CohortTable) Validate() error {
	if len(t.cells) == 0 {
		return domain.NewConfigurationError("cohort_table", "no cohort cells loaded")
	}
	for _, c := range t.Cells() {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// decadeProfile carries the per-decade table data shared by both genders.
type decadeProfile struct {
	decade     int
	end        int
	boundaries [5]float64
	maleMean   float64
	femaleMean float64
	targets    domain.BiomarkerTargets
	screening  domain.ScreeningCadence
}

// Boundaries grow more permissive with age: an absolute score that is
// alarming at 35 is near the population norm at 75.
var decadeProfiles = []decadeProfile{
	{
		decade: 30, end: 39,
		boundaries: [5]float64{12, 25, 45, 65, 100},
		maleMean:   20, femaleMean: 16,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 125, DiastolicBPMax: 80,
			TotalCholMax: 200, LDLMax: 100, HDLMin: 45, TriglyceridesMax: 150,
			FastingGlucoseMax: 100, BMIMax: 25,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 24, LipidPanelMonths: 36, StressTestMonths: 60},
	},
	{
		decade: 40, end: 49,
		boundaries: [5]float64{15, 28, 50, 70, 100},
		maleMean:   26, femaleMean: 22,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 130, DiastolicBPMax: 85,
			TotalCholMax: 200, LDLMax: 100, HDLMin: 45, TriglyceridesMax: 150,
			FastingGlucoseMax: 100, BMIMax: 25,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 12, LipidPanelMonths: 24, StressTestMonths: 60},
	},
	{
		decade: 50, end: 59,
		boundaries: [5]float64{18, 32, 55, 75, 100},
		maleMean:   34, femaleMean: 29,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 130, DiastolicBPMax: 85,
			TotalCholMax: 210, LDLMax: 110, HDLMin: 42, TriglyceridesMax: 160,
			FastingGlucoseMax: 105, BMIMax: 26,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 12, LipidPanelMonths: 24, StressTestMonths: 36},
	},
	{
		decade: 60, end: 69,
		boundaries: [5]float64{22, 38, 60, 80, 100},
		maleMean:   42, femaleMean: 37,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 135, DiastolicBPMax: 85,
			TotalCholMax: 220, LDLMax: 115, HDLMin: 40, TriglyceridesMax: 170,
			FastingGlucoseMax: 108, BMIMax: 27,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 12, LipidPanelMonths: 12, StressTestMonths: 24},
	},
	{
		decade: 70, end: 79,
		boundaries: [5]float64{26, 42, 65, 85, 100},
		maleMean:   50, femaleMean: 45,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 140, DiastolicBPMax: 90,
			TotalCholMax: 230, LDLMax: 120, HDLMin: 40, TriglyceridesMax: 180,
			FastingGlucoseMax: 110, BMIMax: 27,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 6, LipidPanelMonths: 12, StressTestMonths: 24},
	},
	{
		decade: 80, end: 120,
		boundaries: [5]float64{30, 48, 70, 88, 100},
		maleMean:   57, femaleMean: 52,
		targets: domain.BiomarkerTargets{
			SystolicBPMax: 145, DiastolicBPMax: 90,
			TotalCholMax: 240, LDLMax: 125, HDLMin: 38, TriglyceridesMax: 190,
			FastingGlucoseMax: 115, BMIMax: 28,
		},
		screening: domain.ScreeningCadence{CheckupMonths: 6, LipidPanelMonths: 12, StressTestMonths: 12},
	},
}

// guidanceFor builds the per-band narrative for a cohort cell.
func guidanceFor(cohort string) [5]string {
	return [5]string{
		fmt.Sprintf("Well below typical risk for the %s cohort; maintain current habits.", cohort),
		fmt.Sprintf("Lower than typical risk for the %s cohort; continue routine screening.", cohort),
		fmt.Sprintf("Typical to slightly elevated risk for the %s cohort; focus on modifiable factors.", cohort),
		fmt.Sprintf("Elevated risk for the %s cohort; clinical follow-up is advised.", cohort),
		fmt.Sprintf("Substantially elevated risk for the %s cohort; prompt clinical attention is advised.", cohort),
	}
}

// DefaultCohortTable builds the built-in gender x age-decade table.
func DefaultCohortTable() *CohortTable {
	cells := make(map[cohortKey]*CohortThresholds, len(decadeProfiles)*2)

	for _, p := range decadeProfiles {
		for _, gender := range []domain.Sex{domain.MALE, domain.FEMALE} {
			mean := p.maleMean
			targets := p.targets
			if gender == domain.FEMALE {
				mean = p.femaleMean
				// HDL targets run higher for women.
				targets.HDLMin += 5
			}
			cell := &CohortThresholds{
				Gender:         gender,
				DecadeStart:    p.decade,
				DecadeEnd:      p.end,
				Boundaries:     p.boundaries,
				PopulationMean: mean,
				Targets:        targets,
				Screening:      p.screening,
			}
			cell.Guidance = guidanceFor(cell.Name())
			cells[cohortKey{gender: gender, decade: p.decade}] = cell
		}
	}

	return &CohortTable{cells: cells}
}
