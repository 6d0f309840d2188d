package submissions

import (
	"context"
	_ "embed"
	"strings"
	"text/template"

	"inboxwatch/internal/faults"
)

var (
	//go:embed schema_sqlite.sql
	sqliteSchema string
	//go:embed schema_postgres.sql
	postgresSchema string
)

var schemaFuncs = template.FuncMap{"ident": quoteIdent}

func (s *Store) schemaSQL() (string, error) {
	source := sqliteSchema
	if s.dialect.driver == DriverPostgres {
		source = postgresSchema
	}
	tmpl, err := template.New("schema").Funcs(schemaFuncs).Parse(source)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	data := struct {
		Table string
		Cols  Columns
	}{Table: s.table, Cols: s.cols}
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// EnsureSchema creates the submission table and its unread index when they
// do not exist. Existing tables are left untouched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl, err := s.schemaSQL()
	if err != nil {
		return faults.Wrap(faults.ErrStoreUnavailable, "store", "schema", "render", err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.execWithRetry(ctx, ddl); err != nil {
		return faults.Wrap(faults.ErrStoreUnavailable, "store", "schema", s.table, err)
	}
	return nil
}
