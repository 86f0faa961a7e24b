package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOrders(t *testing.T) {
	path := writeFile(t, "orders.csv",
		"order_id,order_date,customer_id,channel,revenue\n"+
			"o1,2023-01-15,c1,google,120.50\n"+
			"o2,2023-02-01,c2,meta,80\n")

	orders, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o1", orders[0].OrderID)
	assert.Equal(t, "c1", orders[0].CustomerID)
	assert.Equal(t, "google", orders[0].Channel)
	assert.Equal(t, 120.50, orders[0].Revenue)
	assert.Equal(t, "2023-01", orders[0].OrderMonth)
	assert.Equal(t, "2023-02", orders[1].OrderMonth)
}

func TestLoadOrders_ColumnOrderIrrelevant(t *testing.T) {
	path := writeFile(t, "orders.csv",
		"revenue,customer_id,order_id,channel,order_date\n"+
			"10,c1,o1,google,2023-03-05\n")

	orders, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].OrderID)
	assert.Equal(t, 10.0, orders[0].Revenue)
}

func TestLoadOrders_MissingColumn(t *testing.T) {
	path := writeFile(t, "orders.csv",
		"order_id,order_date,customer_id,channel\n"+
			"o1,2023-01-15,c1,google\n")

	_, err := LoadOrders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue")
}

func TestLoadOrders_BadDate(t *testing.T) {
	path := writeFile(t, "orders.csv",
		"order_id,order_date,customer_id,channel,revenue\n"+
			"o1,not-a-date,c1,google,10\n")

	_, err := LoadOrders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_date")
}

func TestLoadOrders_BadRevenue(t *testing.T) {
	path := writeFile(t, "orders.csv",
		"order_id,order_date,customer_id,channel,revenue\n"+
			"o1,2023-01-15,c1,google,lots\n")

	_, err := LoadOrders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue")
}

func TestLoadSpend(t *testing.T) {
	path := writeFile(t, "spend.csv",
		"month,channel,spend\n"+
			"2023-01,google,1000\n"+
			"2023-01-15,meta,500.25\n")

	spend, err := LoadSpend(path)
	require.NoError(t, err)
	require.Len(t, spend, 2)

	assert.Equal(t, "2023-01", spend[0].Month)
	assert.Equal(t, 1000.0, spend[0].Spend)
	// date-typed months normalize to YYYY-MM
	assert.Equal(t, "2023-01", spend[1].Month)
}

func TestLoadSpend_MissingColumn(t *testing.T) {
	path := writeFile(t, "spend.csv",
		"month,spend\n"+
			"2023-01,1000\n")

	_, err := LoadSpend(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel")
}

func TestNormalizeMonth(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2023-01", want: "2023-01"},
		{in: "2023-12", want: "2023-12"},
		{in: "2023-01-15", want: "2023-01"},
		{in: "2023-01-15T10:30:00Z", want: "2023-01"},
		{in: "2023-13", wantErr: true},
		{in: "2023-00", wantErr: true},
		{in: "january", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeMonth(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
