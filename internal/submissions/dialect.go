package submissions

import (
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DetectDriver picks the database driver for dsn. URLs with a postgres
// scheme and key/value strings containing host= select PostgreSQL; anything
// else is treated as a SQLite path or file: URI.
func DetectDriver(dsn string) string {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.Contains(lower, "host="):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}

// sqlitePath strips the sqlite:// scheme; file: URIs are passed through.
func sqlitePath(dsn string) string {
	trimmed := strings.TrimSpace(dsn)
	if strings.HasPrefix(strings.ToLower(trimmed), "sqlite://") {
		return trimmed[len("sqlite://"):]
	}
	return trimmed
}

// sqliteFile returns the filesystem path behind a SQLite DSN, or "" for
// in-memory databases.
func sqliteFile(dsn string) string {
	path := sqlitePath(dsn)
	if strings.HasPrefix(path, "file:") {
		path = strings.TrimPrefix(path, "file:")
		if idx := strings.IndexByte(path, '?'); idx >= 0 {
			path = path[:idx]
		}
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}

type dialect struct {
	driver string
}

func (d dialect) falseLiteral() string {
	if d.driver == DriverPostgres {
		return "FALSE"
	}
	return "0"
}

func (d dialect) trueLiteral() string {
	if d.driver == DriverPostgres {
		return "TRUE"
	}
	return "1"
}

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
