package models

import (
	"time"
)

/*
LOAD → raw relations read from the orders and spend inputs.
*/

// Order is a single order record as read from the orders table.
type Order struct {
	OrderID    string
	OrderDate  time.Time
	OrderMonth string // "YYYY-MM", derived from OrderDate
	CustomerID string
	Channel    string
	Revenue    float64
}

// SpendRecord is a single marketing spend record. Month is always the
// canonical "YYYY-MM" form regardless of how the source encoded it.
type SpendRecord struct {
	Month   string
	Channel string
	Spend   float64
}

/*
COHORT → per-customer acquisition facts and order enrichment.
*/

// CohortAssignment holds the acquisition facts for one customer: the date
// of their first order, the cohort month it falls in, and the channel that
// acquired them. Exactly one per distinct CustomerID.
type CohortAssignment struct {
	CustomerID         string
	FirstOrderDate     time.Time
	CohortMonth        string
	AcquisitionChannel string
}

// EnrichedOrder is an Order joined with its customer's cohort facts.
// MonthsSinceCohort counts whole calendar months from the cohort month to
// the order's month and is never negative.
type EnrichedOrder struct {
	Order
	CohortMonth        string
	AcquisitionChannel string
	MonthsSinceCohort  int
}

/*
AGGREGATE → grouped measures feeding the LTV and CAC calculations.
*/

// CohortRevenue is the revenue sum for one (cohort month, offset) pair.
type CohortRevenue struct {
	CohortMonth       string
	MonthsSinceCohort int
	Revenue           float64
}

// CohortSize is the number of customers acquired in one cohort month.
type CohortSize struct {
	CohortMonth  string
	NewCustomers int
}

// CohortCAC carries the acquisition economics of one cohort. CAC is NaN
// when NewCustomers is zero; a cohort month with no spend rows gets
// SpendTotal 0 and a CAC of 0, which is a different thing.
type CohortCAC struct {
	CohortMonth  string
	NewCustomers int
	SpendTotal   float64
	CAC          float64
}

/*
COMPUTE → dense matrices and the final report rows.
*/

// LtvMatrix is a dense grid of average revenue per acquired customer,
// cohort months down, offsets across. Offsets is the full set of
// months-since-cohort values observed anywhere in the dataset, ascending;
// every cohort row has one value per offset, zero-filled where that
// cohort recorded no revenue.
type LtvMatrix struct {
	Cohorts []string
	Offsets []int
	Values  map[string][]float64 // cohort month → value per Offsets index
}

// Value returns the cell for a cohort at an offset index.
func (m LtvMatrix) Value(cohort string, idx int) float64 {
	return m.Values[cohort][idx]
}

// SummaryRow is one line of the Summary sheet. LTVLatest is the cumulative
// LTV at the dataset-wide maximum offset; LTVtoCAC is NaN when CAC is NaN
// or zero.
type SummaryRow struct {
	CohortMonth string
	LTVLatest   float64
	CAC         float64
	LTVtoCAC    float64
}

/*
CONFIG → parameters for one pipeline run.
*/

// Config carries the settings passed to the compute stage.
type Config struct {
	Verbose bool // enable per-cohort debug logging
}
