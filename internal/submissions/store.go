package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inboxwatch/internal/faults"
)

// CountUnread returns the number of submissions whose read flag is clear.
func (s *Store) CountUnread(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = %s`,
		quoteIdent(s.table), quoteIdent(s.cols.IsRead), s.dialect.falseLiteral())
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, query).Scan(&count)
	})
	if err != nil {
		return 0, faults.Wrap(faults.ErrStoreUnavailable, "store", "count unread", s.table, err)
	}
	return count, nil
}

// ListAll returns every submission ordered by id descending. The read runs
// inside a read-only transaction so the set is a consistent snapshot.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC`,
		s.cols.selectList(), quoteIdent(s.table), quoteIdent(s.cols.ID))

	var records []Record
	err := retryOnBusy(ctx, func() error {
		records = nil
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "list", s.table, err)
	}
	return records, nil
}

// Get fetches a submission by identifier. A missing row yields an error
// marked faults.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.dialect.rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`,
		s.cols.selectList(), quoteIdent(s.table), quoteIdent(s.cols.ID)))
	var rec Record
	err := retryOnBusy(ctx, func() error {
		var scanErr error
		rec, scanErr = scanRecord(s.db.QueryRowContext(ctx, query, id))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, faults.Wrap(faults.ErrNotFound, "store", "get", fmt.Sprintf("submission %d", id), nil)
	}
	if err != nil {
		return Record{}, faults.Wrap(faults.ErrStoreUnavailable, "store", "get", fmt.Sprintf("submission %d", id), err)
	}
	return rec, nil
}

// MarkRead sets the read flag on one submission. The flag is one-way; there
// is no operation to clear it.
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET %s = %s WHERE %s = ?`,
		quoteIdent(s.table), quoteIdent(s.cols.IsRead), s.dialect.trueLiteral(), quoteIdent(s.cols.ID))
	res, err := s.execWithRetry(ctx, query, id)
	if err != nil {
		return faults.Wrap(faults.ErrSaveFailed, "store", "mark read", fmt.Sprintf("submission %d", id), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return faults.Wrap(faults.ErrSaveFailed, "store", "mark read", "rows affected", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "mark read", fmt.Sprintf("submission %d", id), nil)
	}
	return nil
}

// Insert adds an unread submission and returns it with its assigned id.
func (s *Store) Insert(ctx context.Context, sub NewSubmission) (Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ts := sub.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	rec := Record{
		Name:      strings.TrimSpace(sub.Name),
		Email:     strings.TrimSpace(sub.Email),
		Message:   sub.Message,
		Timestamp: ts,
	}
	query := s.dialect.rebind(fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, %s) RETURNING %s`,
		quoteIdent(s.table),
		quoteIdent(s.cols.Name), quoteIdent(s.cols.Email), quoteIdent(s.cols.Message),
		quoteIdent(s.cols.Timestamp), quoteIdent(s.cols.IsRead),
		s.dialect.falseLiteral(), quoteIdent(s.cols.ID)))
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, rec.Name, rec.Email, rec.Message, rec.Timestamp).Scan(&rec.ID)
	})
	if err != nil {
		return Record{}, faults.Wrap(faults.ErrSaveFailed, "store", "insert", s.table, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec     Record
		name    sql.NullString
		email   sql.NullString
		message sql.NullString
		ts      timestampValue
		isRead  sql.NullBool
	)
	if err := row.Scan(&rec.ID, &name, &email, &message, &ts, &isRead); err != nil {
		return Record{}, err
	}
	rec.Name = name.String
	rec.Email = email.String
	rec.Message = message.String
	rec.Timestamp = ts.Time
	rec.IsRead = isRead.Valid && isRead.Bool
	return rec, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestampValue accepts the timestamp encodings produced by the supported
// drivers and by legacy producers that store text.
type timestampValue struct {
	Time time.Time
}

func (t *timestampValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestampValue) parse(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", value)
}
