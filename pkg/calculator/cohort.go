package calculator

import (
	"sort"
	"time"

	"cohort-ltv/pkg/models"

	"github.com/ahmetb/go-linq/v3"
	"github.com/samber/lo"
)

// cohortOffset is the composite grouping key for revenue aggregation.
type cohortOffset struct {
	Cohort string
	Offset int
}

// DeriveCohorts produces exactly one assignment per distinct customer: the
// earliest order's date, its month, and its channel. Ties on the first
// date are broken by the smallest order_id so the pick is deterministic.
func DeriveCohorts(orders []models.Order) []models.CohortAssignment {
	var groups []linq.Group
	linq.From(orders).
		GroupByT(
			func(o models.Order) string { return o.CustomerID },
			func(o models.Order) models.Order { return o }).
		ToSlice(&groups)

	cohorts := make([]models.CohortAssignment, 0, len(groups))
	for _, g := range groups {
		first := g.Group[0].(models.Order)
		for _, el := range g.Group[1:] {
			if o := el.(models.Order); acquiredBefore(o, first) {
				first = o
			}
		}
		cohorts = append(cohorts, models.CohortAssignment{
			CustomerID:         g.Key.(string),
			FirstOrderDate:     first.OrderDate,
			CohortMonth:        first.OrderDate.Format("2006-01"),
			AcquisitionChannel: first.Channel,
		})
	}

	sort.Slice(cohorts, func(i, j int) bool {
		if cohorts[i].CohortMonth != cohorts[j].CohortMonth {
			return cohorts[i].CohortMonth < cohorts[j].CohortMonth
		}
		return cohorts[i].CustomerID < cohorts[j].CustomerID
	})
	return cohorts
}

func acquiredBefore(a, b models.Order) bool {
	if !a.OrderDate.Equal(b.OrderDate) {
		return a.OrderDate.Before(b.OrderDate)
	}
	return a.OrderID < b.OrderID
}

// JoinCohorts attaches each order's cohort facts via an inner join on
// customer_id and computes the whole-calendar-month offset from the
// acquisition month. Orders without an assignment are dropped.
func JoinCohorts(orders []models.Order, cohorts []models.CohortAssignment) []models.EnrichedOrder {
	byCustomer := lo.KeyBy(cohorts, func(c models.CohortAssignment) string { return c.CustomerID })

	enriched := make([]models.EnrichedOrder, 0, len(orders))
	for _, o := range orders {
		ca, ok := byCustomer[o.CustomerID]
		if !ok {
			continue
		}
		enriched = append(enriched, models.EnrichedOrder{
			Order:              o,
			CohortMonth:        ca.CohortMonth,
			AcquisitionChannel: ca.AcquisitionChannel,
			MonthsSinceCohort:  monthsBetween(ca.FirstOrderDate, o.OrderDate),
		})
	}
	return enriched
}

// monthsBetween counts whole calendar months between the month of from and
// the month of to, ignoring the day of month.
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// RevenueByCohortOffset sums revenue per (cohort month, offset) pair,
// ordered by cohort month then offset ascending.
func RevenueByCohortOffset(enriched []models.EnrichedOrder) []models.CohortRevenue {
	var groups []linq.Group
	linq.From(enriched).
		GroupByT(
			func(e models.EnrichedOrder) cohortOffset {
				return cohortOffset{Cohort: e.CohortMonth, Offset: e.MonthsSinceCohort}
			},
			func(e models.EnrichedOrder) float64 { return e.Revenue }).
		ToSlice(&groups)

	out := make([]models.CohortRevenue, 0, len(groups))
	for _, g := range groups {
		key := g.Key.(cohortOffset)
		out = append(out, models.CohortRevenue{
			CohortMonth:       key.Cohort,
			MonthsSinceCohort: key.Offset,
			Revenue:           linq.From(g.Group).SumFloats(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CohortMonth != out[j].CohortMonth {
			return out[i].CohortMonth < out[j].CohortMonth
		}
		return out[i].MonthsSinceCohort < out[j].MonthsSinceCohort
	})
	return out
}

// NewCustomersByCohort counts distinct customers per cohort month.
func NewCustomersByCohort(cohorts []models.CohortAssignment) []models.CohortSize {
	grouped := lo.GroupBy(cohorts, func(c models.CohortAssignment) string { return c.CohortMonth })

	sizes := make([]models.CohortSize, 0, len(grouped))
	for month, members := range grouped {
		distinct := lo.UniqBy(members, func(c models.CohortAssignment) string { return c.CustomerID })
		sizes = append(sizes, models.CohortSize{CohortMonth: month, NewCustomers: len(distinct)})
	}

	sort.Slice(sizes, func(i, j int) bool { return sizes[i].CohortMonth < sizes[j].CohortMonth })
	return sizes
}

// SpendByMonth sums spend per month across all channels. The channel
// dimension is intentionally discarded; CAC is month-level.
func SpendByMonth(spend []models.SpendRecord) map[string]float64 {
	grouped := lo.GroupBy(spend, func(s models.SpendRecord) string { return s.Month })

	totals := make(map[string]float64, len(grouped))
	for month, rows := range grouped {
		totals[month] = lo.SumBy(rows, func(s models.SpendRecord) float64 { return s.Spend })
	}
	return totals
}
