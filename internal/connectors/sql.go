package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go-insight/internal/features/query"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

var viewTables = map[query.ViewKind]string{
	query.ViewTraces:            "traces",
	query.ViewObservations:      "observations",
	query.ViewScoresNumeric:     "scores",
	query.ViewScoresCategorical: "scores",
}

// SQLConnector executes widget queries against an external SQL analytics
// store ("postgres" or "mysql").
type SQLConnector struct {
	dbType string
	db     *sql.DB
}

func NewSQLConnector(dbType string) *SQLConnector {
	return &SQLConnector{dbType: dbType}
}

// Connect establishes the database connection
func (c *SQLConnector) Connect(ctx context.Context, dsn string) error {
	driver := c.dbType
	if c.dbType == "postgresql" || c.dbType == "postgres" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	c.db = db
	return nil
}

// Disconnect closes the database connection
func (c *SQLConnector) Disconnect(ctx context.Context) error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Execute compiles the descriptor to SQL and returns the result rows.
func (c *SQLConnector) Execute(ctx context.Context, q query.QueryDescriptor) ([]query.Row, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	stmt, args, err := c.buildSQL(q)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return c.rowsToMaps(rows)
}

// ListTraces pages through the traces table newest-first.
func (c *SQLConnector) ListTraces(ctx context.Context, page, limit int, filters []query.Filter) (*TracePage, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if page < 1 {
		page = 1
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM traces").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count traces: %w", err)
	}

	offset := (page - 1) * limit
	stmt := fmt.Sprintf("SELECT * FROM traces ORDER BY timestamp DESC LIMIT %d OFFSET %d", limit, offset)
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	defer rows.Close()

	data, err := c.rowsToMaps(rows)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return &TracePage{
		Data: data,
		Meta: TraceMeta{Page: page, Limit: limit, TotalItems: total, TotalPages: totalPages},
	}, nil
}

// Ping tests if the database connection is valid
func (c *SQLConnector) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}
	return c.db.PingContext(ctx)
}

func (c *SQLConnector) buildSQL(q query.QueryDescriptor) (string, []interface{}, error) {
	table, ok := viewTables[q.View]
	if !ok {
		return "", nil, fmt.Errorf("unknown view %q", q.View)
	}

	selects := make([]string, 0, len(q.Dimensions)+len(q.Metrics)+1)
	groupBy := make([]string, 0, len(q.Dimensions)+1)

	if q.TimeDimension != nil {
		expr := c.dayExpr("timestamp")
		selects = append(selects, expr+" AS time_dimension")
		groupBy = append(groupBy, expr)
	}
	for _, d := range q.Dimensions {
		selects = append(selects, quoteIdent(d))
		groupBy = append(groupBy, quoteIdent(d))
	}
	for _, m := range q.Metrics {
		expr, err := c.aggregateExpr(m)
		if err != nil {
			return "", nil, err
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, metricAlias(m)))
	}

	var args []interface{}
	where := []string{
		fmt.Sprintf("timestamp >= %s", c.placeholder(1)),
		fmt.Sprintf("timestamp <= %s", c.placeholder(2)),
	}
	args = append(args, q.TimeRange.From, q.TimeRange.To)

	for _, f := range q.Filters {
		cond, arg, err := c.filterExpr(f, len(args)+1)
		if err != nil {
			return "", nil, err
		}
		where = append(where, cond)
		if arg != nil {
			args = append(args, arg)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", strings.Join(selects, ", "), table, strings.Join(where, " AND "))
	if len(groupBy) > 0 {
		fmt.Fprintf(&b, " GROUP BY %s", strings.Join(groupBy, ", "))
	}
	if len(q.OrderBy) > 0 {
		parts := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			dir := "ASC"
			if strings.EqualFold(o.Direction, "desc") {
				dir = "DESC"
			}
			parts = append(parts, quoteIdent(o.Field)+" "+dir)
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(parts, ", "))
	} else if q.TimeDimension != nil {
		b.WriteString(" ORDER BY time_dimension ASC")
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

func (c *SQLConnector) aggregateExpr(m query.Metric) (string, error) {
	col := quoteIdent(m.Measure)
	switch m.Aggregation {
	case query.AggCount:
		return "COUNT(*)", nil
	case query.AggSum:
		return "SUM(" + col + ")", nil
	case query.AggAvg:
		return "AVG(" + col + ")", nil
	case query.AggMin:
		return "MIN(" + col + ")", nil
	case query.AggMax:
		return "MAX(" + col + ")", nil
	case query.AggP50, query.AggP90, query.AggP95, query.AggP99:
		q := map[query.Aggregation]string{
			query.AggP50: "0.5", query.AggP90: "0.9",
			query.AggP95: "0.95", query.AggP99: "0.99",
		}[m.Aggregation]
		if c.dbType == "mysql" {
			// MySQL has no percentile aggregate; MAX is the closest
			// upper-bound approximation without window functions.
			return "MAX(" + col + ")", nil
		}
		return fmt.Sprintf("PERCENTILE_CONT(%s) WITHIN GROUP (ORDER BY %s)", q, col), nil
	default:
		return "", fmt.Errorf("unknown aggregation %q", m.Aggregation)
	}
}

func (c *SQLConnector) filterExpr(f query.Filter, argPos int) (string, interface{}, error) {
	col := quoteIdent(f.Column)
	ph := c.placeholder(argPos)

	switch f.Operator {
	case query.OpIs:
		return col + " = " + ph, f.Value, nil
	case query.OpIsNot:
		return col + " <> " + ph, f.Value, nil
	case query.OpContains:
		return "LOWER(" + col + ") LIKE " + ph, "%" + strings.ToLower(fmt.Sprintf("%v", f.Value)) + "%", nil
	case query.OpDoesNotContain:
		return "LOWER(" + col + ") NOT LIKE " + ph, "%" + strings.ToLower(fmt.Sprintf("%v", f.Value)) + "%", nil
	case query.OpStartsWith:
		return "LOWER(" + col + ") LIKE " + ph, strings.ToLower(fmt.Sprintf("%v", f.Value)) + "%", nil
	case query.OpEndsWith:
		return "LOWER(" + col + ") LIKE " + ph, "%" + strings.ToLower(fmt.Sprintf("%v", f.Value)), nil
	case query.OpIsEmpty:
		return "(" + col + " IS NULL OR " + col + " = '')", nil, nil
	case query.OpIsNotEmpty:
		return "(" + col + " IS NOT NULL AND " + col + " <> '')", nil, nil
	case query.OpGreaterThan:
		return col + " > " + ph, f.Value, nil
	case query.OpLessThan:
		return col + " < " + ph, f.Value, nil
	case query.OpGreaterThanOrEqual:
		return col + " >= " + ph, f.Value, nil
	case query.OpLessThanOrEqual:
		return col + " <= " + ph, f.Value, nil
	default:
		return "", nil, fmt.Errorf("unknown filter operator %q", f.Operator)
	}
}

func (c *SQLConnector) dayExpr(col string) string {
	if c.dbType == "mysql" {
		return "DATE_FORMAT(" + col + ", '%Y-%m-%d')"
	}
	return "TO_CHAR(" + col + ", 'YYYY-MM-DD')"
}

func (c *SQLConnector) placeholder(n int) string {
	if c.dbType == "mysql" {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func metricAlias(m query.Metric) string {
	return string(m.Aggregation) + "_" + strings.ReplaceAll(m.Measure, ".", "_")
}

func quoteIdent(s string) string {
	// Identifiers come from validated descriptors; strip anything that
	// would break out of an identifier position.
	var b strings.Builder
	for _, r := range s {
		if r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *SQLConnector) rowsToMaps(rows *sql.Rows) ([]query.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]query.Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(query.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
