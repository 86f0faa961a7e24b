package calculator

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"cohort-ltv/pkg/models"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

// Results holds everything the report exporter consumes.
type Results struct {
	LtvCumulative models.LtvMatrix
	CAC           []models.CohortCAC
	Summary       []models.SummaryRow
}

// Run executes the whole pipeline over the loaded relations.
func Run(orders []models.Order, spend []models.SpendRecord, cfg models.Config) (Results, error) {
	if len(orders) == 0 {
		return Results{}, fmt.Errorf("no orders to process")
	}

	cohorts := DeriveCohorts(orders)
	enriched := JoinCohorts(orders, cohorts)
	revenue := RevenueByCohortOffset(enriched)
	sizes := NewCustomersByCohort(cohorts)
	spendTotals := SpendByMonth(spend)

	matrix := BuildLtvMatrix(revenue, sizes, cfg.Verbose)
	cumulative := CumulateRows(matrix)
	cac := ComputeCAC(sizes, spendTotals)
	summary := BuildSummary(cumulative, cac)

	slog.Info("pipeline complete",
		slog.Int("orders", len(orders)),
		slog.Int("customers", len(cohorts)),
		slog.Int("cohorts", len(sizes)),
		slog.Int("offsets", len(matrix.Offsets)))

	return Results{LtvCumulative: cumulative, CAC: cac, Summary: summary}, nil
}

// BuildLtvMatrix densifies the revenue aggregate into a grid of average
// revenue per acquired customer. Columns cover every offset observed
// anywhere in the dataset; a cohort with no revenue at some offset gets 0
// there (no revenue means zero contribution that month, not missing data).
// A zero-customer cohort cannot arise from DeriveCohorts, but its cells
// would be NaN rather than a panic.
func BuildLtvMatrix(revenue []models.CohortRevenue, sizes []models.CohortSize, verbose bool) models.LtvMatrix {
	offsets := lo.Uniq(lo.Map(revenue, func(r models.CohortRevenue, _ int) int { return r.MonthsSinceCohort }))
	sort.Ints(offsets)

	cells := make(map[cohortOffset]float64, len(revenue))
	for _, r := range revenue {
		cells[cohortOffset{Cohort: r.CohortMonth, Offset: r.MonthsSinceCohort}] = r.Revenue
	}

	m := models.LtvMatrix{
		Cohorts: lo.Map(sizes, func(s models.CohortSize, _ int) string { return s.CohortMonth }),
		Offsets: offsets,
		Values:  make(map[string][]float64, len(sizes)),
	}

	bar := progressbar.Default(int64(len(sizes)))
	for _, s := range sizes {
		row := make([]float64, len(offsets))
		for i, off := range offsets {
			rev := cells[cohortOffset{Cohort: s.CohortMonth, Offset: off}]
			if s.NewCustomers == 0 {
				row[i] = math.NaN()
			} else {
				row[i] = rev / float64(s.NewCustomers)
			}
		}
		m.Values[s.CohortMonth] = row

		_ = bar.Add(1)
		if verbose {
			slog.Debug("cohort row built",
				slog.String("cohort", s.CohortMonth),
				slog.Int("new_customers", s.NewCustomers))
		}
	}
	return m
}

// CumulateRows replaces every row with its left-to-right running sum,
// producing a new matrix. Rows stay monotonically non-decreasing as long
// as revenue is non-negative.
func CumulateRows(m models.LtvMatrix) models.LtvMatrix {
	out := models.LtvMatrix{
		Cohorts: m.Cohorts,
		Offsets: m.Offsets,
		Values:  make(map[string][]float64, len(m.Values)),
	}
	for cohort, row := range m.Values {
		cum := make([]float64, len(row))
		total := 0.0
		for i, v := range row {
			total += v
			cum[i] = total
		}
		out.Values[cohort] = cum
	}
	return out
}

// ComputeCAC joins cohort sizes against monthly spend totals. The join is
// driven by the cohorts: spend months with no new customers never appear,
// and a cohort month absent from spend gets SpendTotal 0 and a CAC of 0.
// CAC is NaN only when NewCustomers is 0.
func ComputeCAC(sizes []models.CohortSize, spendTotals map[string]float64) []models.CohortCAC {
	out := make([]models.CohortCAC, 0, len(sizes))
	for _, s := range sizes {
		cac := math.NaN()
		if s.NewCustomers > 0 {
			cac = spendTotals[s.CohortMonth] / float64(s.NewCustomers)
		}
		out = append(out, models.CohortCAC{
			CohortMonth:  s.CohortMonth,
			NewCustomers: s.NewCustomers,
			SpendTotal:   spendTotals[s.CohortMonth],
			CAC:          cac,
		})
	}
	return out
}

// BuildSummary takes the cumulative LTV at the dataset-wide maximum offset
// for every cohort. Young cohorts therefore carry zero-padded future
// offsets in that number; that matches the reporting convention rather
// than each cohort's own horizon. LTV:CAC is NaN when CAC is NaN or zero.
func BuildSummary(ltvCum models.LtvMatrix, cac []models.CohortCAC) []models.SummaryRow {
	if len(ltvCum.Offsets) == 0 {
		return nil
	}
	latest := len(ltvCum.Offsets) - 1
	cacByMonth := lo.KeyBy(cac, func(c models.CohortCAC) string { return c.CohortMonth })

	out := make([]models.SummaryRow, 0, len(ltvCum.Cohorts))
	for _, cohort := range ltvCum.Cohorts {
		ltvLatest := ltvCum.Value(cohort, latest)

		cohortCAC := math.NaN()
		if c, ok := cacByMonth[cohort]; ok {
			cohortCAC = c.CAC
		}

		ratio := math.NaN()
		if !math.IsNaN(cohortCAC) && cohortCAC != 0 {
			ratio = ltvLatest / cohortCAC
		}

		out = append(out, models.SummaryRow{
			CohortMonth: cohort,
			LTVLatest:   ltvLatest,
			CAC:         cohortCAC,
			LTVtoCAC:    ratio,
		})
	}
	return out
}
