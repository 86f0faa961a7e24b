package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"cohort-ltv/pkg/models"
)

// Accepted order_date layouts, most common first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

var monthRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// LoadOrders reads the orders CSV. Required columns:
// order_id, order_date, customer_id, channel, revenue.
func LoadOrders(path string) ([]models.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	cols, err := headerIndex(r, "orders", []string{"order_id", "order_date", "customer_id", "channel", "revenue"})
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("orders line %d: %w", line, err)
		}

		date, err := parseDate(rec[cols["order_date"]])
		if err != nil {
			return nil, fmt.Errorf("orders line %d: order_date: %w", line, err)
		}
		revenue, err := strconv.ParseFloat(rec[cols["revenue"]], 64)
		if err != nil {
			return nil, fmt.Errorf("orders line %d: revenue %q: %w", line, rec[cols["revenue"]], err)
		}

		orders = append(orders, models.Order{
			OrderID:    rec[cols["order_id"]],
			OrderDate:  date,
			OrderMonth: date.Format("2006-01"),
			CustomerID: rec[cols["customer_id"]],
			Channel:    rec[cols["channel"]],
			Revenue:    revenue,
		})
	}

	slog.Debug("orders loaded", slog.String("path", path), slog.Int("rows", len(orders)))
	return orders, nil
}

// LoadSpend reads the marketing spend CSV. Required columns:
// month, channel, spend. The month column is normalized to "YYYY-MM"
// whether the source wrote a plain month, a date, or a timestamp.
func LoadSpend(path string) ([]models.SpendRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spend: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	cols, err := headerIndex(r, "spend", []string{"month", "channel", "spend"})
	if err != nil {
		return nil, err
	}

	var records []models.SpendRecord
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spend line %d: %w", line, err)
		}

		month, err := NormalizeMonth(rec[cols["month"]])
		if err != nil {
			return nil, fmt.Errorf("spend line %d: month: %w", line, err)
		}
		spend, err := strconv.ParseFloat(rec[cols["spend"]], 64)
		if err != nil {
			return nil, fmt.Errorf("spend line %d: spend %q: %w", line, rec[cols["spend"]], err)
		}

		records = append(records, models.SpendRecord{
			Month:   month,
			Channel: rec[cols["channel"]],
			Spend:   spend,
		})
	}

	slog.Debug("spend loaded", slog.String("path", path), slog.Int("rows", len(records)))
	return records, nil
}

// headerIndex reads the header row and maps each required column name to
// its position. A missing column is a fatal error naming it.
func headerIndex(r *csv.Reader, table string, required []string) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", table, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", table, name)
		}
	}
	return cols, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// NormalizeMonth canonicalizes a month value to "YYYY-MM". It accepts the
// canonical form itself, any parseable date, or a timestamp.
func NormalizeMonth(s string) (string, error) {
	if m := monthRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return "", fmt.Errorf("invalid month %q", s)
		}
		return s, nil
	}
	if t, err := parseDate(s); err == nil {
		return t.Format("2006-01"), nil
	}
	return "", fmt.Errorf("unparseable month %q", s)
}
