package skills

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"skillbox/internal/db"
	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// SQLSkill runs SQL queries against a local database and analyzes CSV files
// by loading them into throwaway tables.
type SQLSkill struct {
	dbURL   string
	conn    *sql.DB
	connect func(string) (*sql.DB, error)
}

// NewSQLSkill returns a sql skill backed by the database at dbURL. An empty
// URL falls back to the local default.
func NewSQLSkill(dbURL string) *SQLSkill {
	if dbURL == "" {
		dbURL = db.DefaultURL
	}
	return &SQLSkill{dbURL: dbURL, connect: db.Connect}
}

func (s *SQLSkill) Name() string        { return "sql" }
func (s *SQLSkill) Description() string { return "SQL queries on local databases and CSVs" }

// database opens the configured database on first use and keeps the
// connection for the life of the skill.
func (s *SQLSkill) database() (*sql.DB, error) {
	if s.conn == nil {
		conn, err := s.connect(s.dbURL)
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}
	return s.conn, nil
}

type sqlQueryDatabaseArgs struct {
	Query string `json:"query" jsonschema:"description=SQL query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Row limit to return (default: 100)"`
}

type sqlQueryCSVArgs struct {
	CSVPath string `json:"csv_path" jsonschema:"description=Path to the CSV file"`
	Query   string `json:"query" jsonschema:"description=SQL query (use 'data' as table name)"`
}

type sqlDescribeCSVArgs struct {
	CSVPath string `json:"csv_path" jsonschema:"description=Path to the CSV file"`
}

type sqlImportCSVArgs struct {
	CSVPath   string `json:"csv_path" jsonschema:"description=Path to the CSV file"`
	TableName string `json:"table_name" jsonschema:"description=Name of the table to create"`
}

type sqlDescribeTableArgs struct {
	TableName string `json:"table_name" jsonschema:"description=Table name"`
}

type sqlNoArgs struct{}

func (s *SQLSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("query_csv", "Execute a SQL query on a CSV file",
			sqlQueryCSVArgs{}, s.queryCSV),
		newTool("query_database", "Execute a SQL query on the local database",
			sqlQueryDatabaseArgs{}, s.queryDatabase),
		newTool("describe_csv", "Show structure and statistics of a CSV",
			sqlDescribeCSVArgs{}, s.describeCSV),
		newTool("import_csv_to_db", "Import a CSV to a table in the local database",
			sqlImportCSVArgs{}, s.importCSV),
		newTool("list_tables", "List available tables in the database",
			sqlNoArgs{}, s.listTables),
		newTool("describe_table", "Show the structure of a table",
			sqlDescribeTableArgs{}, s.describeTable),
	}
}

func (s *SQLSkill) queryDatabase(args schema.Args) (string, error) {
	query := strings.TrimSpace(args.String("query", ""))
	if query == "" {
		return "Error: query is required", nil
	}
	limit := args.Int("limit", 100)

	conn, err := s.database()
	if err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}

	if isSelectQuery(query) {
		if !strings.Contains(strings.ToUpper(query), "LIMIT") {
			query = fmt.Sprintf("%s LIMIT %d", query, limit)
		}
		out, err := runQuery(conn, query, 0)
		if err != nil {
			return fmt.Sprintf("Error executing query: %v", err), nil
		}
		return out, nil
	}

	if _, err := conn.Exec(query); err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}
	return "Query executed successfully.", nil
}

func (s *SQLSkill) queryCSV(args schema.Args) (string, error) {
	csvPath := expandHome(args.String("csv_path", ""))
	query := strings.TrimSpace(args.String("query", ""))
	if csvPath == "" || query == "" {
		return "Error: csv_path and query are required", nil
	}
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Sprintf("Error: CSV not found: %s", csvPath), nil
	}

	header, records, err := readCSV(csvPath, 0)
	if err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}

	// Load into a scratch in-memory database. A transaction pins every
	// statement to one connection so the temp data stays visible.
	scratch, err := s.connect("file:querycsv.db?mode=memory&cache=shared")
	if err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}
	defer scratch.Close()

	tx, err := scratch.Begin()
	if err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}
	defer tx.Rollback()

	if err := loadCSVTable(tx, "data", header, records); err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}

	out, err := runQuery(tx, query, 50)
	if err != nil {
		return fmt.Sprintf("Error executing query: %v", err), nil
	}
	return out, nil
}

func (s *SQLSkill) describeCSV(args schema.Args) (string, error) {
	csvPath := expandHome(args.String("csv_path", ""))
	if csvPath == "" {
		return "Error: csv_path is required", nil
	}
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Sprintf("Error: CSV not found: %s", csvPath), nil
	}

	header, records, err := readCSV(csvPath, 0)
	if err != nil {
		return fmt.Sprintf("Error describing CSV: %v", err), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Analysis of: %s\n\n", filepath.Base(csvPath))
	fmt.Fprintf(&out, "Total rows: %d\n", len(records))
	fmt.Fprintf(&out, "Columns: %d\n\n", len(header))
	out.WriteString("Structure:\n")

	types := make([]string, len(header))
	for i, col := range header {
		types[i] = inferColumnType(columnValues(records, i))
		fmt.Fprintf(&out, "  - %s: %s\n", col, types[i])
	}

	var stats []string
	for i, col := range header {
		if types[i] != "INTEGER" && types[i] != "REAL" {
			continue
		}
		min, max, avg, n := numericStats(columnValues(records, i))
		if n == 0 {
			continue
		}
		stats = append(stats, fmt.Sprintf("  %s: min=%s, max=%s, avg=%.2f",
			col, formatNumber(min), formatNumber(max), avg))
	}
	if len(stats) > 0 {
		out.WriteString("\nStatistics (numeric columns):\n")
		out.WriteString(strings.Join(stats, "\n"))
	}
	return out.String(), nil
}

func (s *SQLSkill) importCSV(args schema.Args) (string, error) {
	csvPath := expandHome(args.String("csv_path", ""))
	tableName := args.String("table_name", "")
	if csvPath == "" || tableName == "" {
		return "Error: csv_path and table_name are required", nil
	}
	if !validIdent.MatchString(tableName) {
		return fmt.Sprintf("Error: invalid table name: %s", tableName), nil
	}
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Sprintf("Error: CSV not found: %s", csvPath), nil
	}

	header, records, err := readCSV(csvPath, 0)
	if err != nil {
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}

	conn, err := s.database()
	if err != nil {
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}
	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", tableName)); err != nil {
		tx.Rollback()
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}
	if err := loadCSVTable(tx, tableName, header, records); err != nil {
		tx.Rollback()
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Sprintf("Error importing CSV: %v", err), nil
	}

	return fmt.Sprintf("Imported: %d rows to table '%s'", len(records), tableName), nil
}

func (s *SQLSkill) listTables(args schema.Args) (string, error) {
	conn, err := s.database()
	if err != nil {
		return fmt.Sprintf("Error listing tables: %v", err), nil
	}

	names, err := tableNames(conn)
	if err != nil {
		return fmt.Sprintf("Error listing tables: %v", err), nil
	}
	if len(names) == 0 {
		return "No tables in the database.\nUse import_csv_to_db to import data.", nil
	}

	var out strings.Builder
	out.WriteString("Available tables:\n")
	for _, name := range names {
		var count int
		if err := conn.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&count); err != nil {
			fmt.Fprintf(&out, "\n  - %s", name)
			continue
		}
		fmt.Fprintf(&out, "\n  - %s (%d rows)", name, count)
	}
	return out.String(), nil
}

func (s *SQLSkill) describeTable(args schema.Args) (string, error) {
	tableName := args.String("table_name", "")
	if tableName == "" {
		return "Error: table_name is required", nil
	}
	if !validIdent.MatchString(tableName) {
		return fmt.Sprintf("Error: invalid table name: %s", tableName), nil
	}

	conn, err := s.database()
	if err != nil {
		return fmt.Sprintf("Error describing table: %v", err), nil
	}

	names, err := tableNames(conn)
	if err != nil {
		return fmt.Sprintf("Error describing table: %v", err), nil
	}
	found := false
	for _, name := range names {
		if name == tableName {
			found = true
			break
		}
	}
	if !found {
		return fmt.Sprintf("Error: Table not found: %s", tableName), nil
	}

	rows, err := conn.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return fmt.Sprintf("Error describing table: %v", err), nil
	}
	defer rows.Close()

	var out strings.Builder
	fmt.Fprintf(&out, "Structure of: %s\n", tableName)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Sprintf("Error describing table: %v", err), nil
		}
		nullable := "NULL"
		if notNull == 1 {
			nullable = "NOT NULL"
		}
		fmt.Fprintf(&out, "\n  - %s: %s %s", name, colType, nullable)
	}
	if err := rows.Err(); err != nil {
		return fmt.Sprintf("Error describing table: %v", err), nil
	}

	var count int
	if err := conn.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", tableName)).Scan(&count); err != nil {
		return fmt.Sprintf("Error describing table: %v", err), nil
	}
	fmt.Fprintf(&out, "\n\nTotal rows: %d", count)
	return out.String(), nil
}

// validIdent restricts table names to identifiers that are safe to splice
// into DDL. Values always go through placeholders.
var validIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// querier is the subset of *sql.DB and *sql.Tx the result formatter needs.
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func isSelectQuery(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(upper, "SELECT") ||
		strings.HasPrefix(upper, "WITH") ||
		strings.HasPrefix(upper, "PRAGMA")
}

// runQuery executes a read query and formats the rows as an aligned text
// table. displayLimit caps the printed rows; zero means print everything.
func runQuery(q querier, query string, displayLimit int) (string, error) {
	rows, err := q.Query(query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var table [][]string
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		for i := range vals {
			vals[i] = new(sql.NullString)
		}
		if err := rows.Scan(vals...); err != nil {
			return "", err
		}
		record := make([]string, len(cols))
		for i, v := range vals {
			cell := v.(*sql.NullString)
			if cell.Valid {
				record[i] = cell.String
			} else {
				record[i] = "NULL"
			}
		}
		table = append(table, record)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(table) == 0 {
		return "Query executed. No results.", nil
	}

	total := len(table)
	if displayLimit > 0 && total > displayLimit {
		table = table[:displayLimit]
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Results (%d rows):\n\n", total)
	out.WriteString(formatTable(cols, table))
	if displayLimit > 0 && total > displayLimit {
		fmt.Fprintf(&out, "\n... (showing %d of %d rows)", displayLimit, total)
	}
	return out.String(), nil
}

// formatTable renders a header plus rows with space-padded columns.
func formatTable(cols []string, table [][]string) string {
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = len(col)
	}
	for _, record := range table {
		for i, cell := range record {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var out strings.Builder
	writeRow := func(record []string) {
		for i, cell := range record {
			if i > 0 {
				out.WriteString("  ")
			}
			out.WriteString(cell)
			if i < len(record)-1 {
				out.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			}
		}
		out.WriteString("\n")
	}
	writeRow(cols)
	for _, record := range table {
		writeRow(record)
	}
	return strings.TrimRight(out.String(), "\n")
}

// readCSV reads the file header and up to maxRows data rows (zero for all).
// Short rows are padded so every record matches the header width.
func readCSV(path string, maxRows int) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records [][]string
	for maxRows == 0 || len(records) < maxRows {
		record, err := r.Read()
		if err != nil {
			break
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		records = append(records, record[:len(header)])
	}
	return header, records, nil
}

// loadCSVTable creates a table from CSV data with inferred column types and
// bulk-inserts the rows through a prepared statement.
func loadCSVTable(tx *sql.Tx, tableName string, header []string, records [][]string) error {
	if len(header) == 0 {
		return fmt.Errorf("CSV has no columns")
	}

	colDefs := make([]string, len(header))
	seen := map[string]bool{}
	cols := make([]string, len(header))
	for i, col := range header {
		name := sanitizeColumn(col, i, seen)
		cols[i] = name
		colDefs[i] = fmt.Sprintf("%q %s", name, inferColumnType(columnValues(records, i)))
	}

	create := fmt.Sprintf("CREATE TABLE %q (%s)", tableName, strings.Join(colDefs, ", "))
	if _, err := tx.Exec(create); err != nil {
		return err
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", tableName, placeholders)
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		vals := make([]interface{}, len(record))
		for i, cell := range record {
			if cell == "" {
				vals[i] = nil
			} else {
				vals[i] = cell
			}
		}
		if _, err := stmt.Exec(vals...); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeColumn turns a CSV header cell into a unique safe identifier.
func sanitizeColumn(col string, index int, seen map[string]bool) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(col) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = fmt.Sprintf("col_%d", index+1)
	}
	for seen[name] {
		name += "_"
	}
	seen[name] = true
	return name
}

// inferColumnType picks the narrowest SQLite type that fits every non-empty
// value in the column.
func inferColumnType(values []string) string {
	isInt, isReal := true, true
	any := false
	for _, v := range values {
		if v == "" {
			continue
		}
		any = true
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isReal = false
		}
		if !isInt && !isReal {
			break
		}
	}
	switch {
	case !any:
		return "TEXT"
	case isInt:
		return "INTEGER"
	case isReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func columnValues(records [][]string, index int) []string {
	values := make([]string, 0, len(records))
	for _, record := range records {
		if index < len(record) {
			values = append(values, record[index])
		}
	}
	return values
}

func numericStats(values []string) (min, max, avg float64, n int) {
	var sum float64
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if n == 0 || f < min {
			min = f
		}
		if n == 0 || f > max {
			max = f
		}
		sum += f
		n++
	}
	if n > 0 {
		avg = sum / float64(n)
	}
	return min, max, avg, n
}

// formatNumber prints with the fewest digits needed, so integer-valued
// stats come out without a decimal point.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tableNames(conn *sql.DB) ([]string, error) {
	rows, err := conn.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
