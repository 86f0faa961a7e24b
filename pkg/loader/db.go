package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cohort-ltv/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

var tableRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open accepts a mariadb:// or mysql:// URL, or a native driver DSN, and
// returns the connection plus the DSN actually used.
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadOrdersDB reads the orders relation from a MySQL/MariaDB table with
// the same five columns the CSV contract requires. Dates come back as
// time.Time because the DSN always carries parseTime=true.
func LoadOrdersDB(ctx context.Context, db *sql.DB, table string) ([]models.Order, error) {
	if !tableRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	q := fmt.Sprintf(`
		SELECT order_id, order_date, customer_id, channel, revenue
		FROM %s
	`, table)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o       models.Order
			revenue sql.NullFloat64
		)
		if err := rows.Scan(&o.OrderID, &o.OrderDate, &o.CustomerID, &o.Channel, &revenue); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.OrderDate = o.OrderDate.UTC()
		o.OrderMonth = o.OrderDate.Format("2006-01")
		if revenue.Valid {
			o.Revenue = revenue.Float64
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Debug("orders loaded from db", slog.String("table", table), slog.Int("rows", len(orders)))
	return orders, nil
}
