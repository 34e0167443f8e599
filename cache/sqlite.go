package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// sqliteStorage stores one bin in its own table, cache_<bin>. Upserts are
// atomic per row via ON CONFLICT; the expire index keeps DeleteExpired and
// the existence probe cheap.
type sqliteStorage struct {
	db    *sql.DB
	table string
	cfg   config
}

var _ Storage = (*sqliteStorage)(nil)

// OpenSQLite opens the database at dbPath with WAL mode enabled for better
// concurrent read performance. If dbPath is empty, an in-memory database is
// used. The caller owns the returned handle and shares it across bins.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewSQLiteStorage returns the Storage for one bin, provisioning its table
// and expire index if they do not exist yet.
func NewSQLiteStorage(db *sql.DB, bin string, opts ...Option) (Storage, error) {
	if err := validateBinName(bin); err != nil {
		return nil, err
	}
	table := "cache_" + bin

	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		cid TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created INTEGER NOT NULL,
		expire INTEGER NOT NULL,
		serialized INTEGER NOT NULL DEFAULT 0
	)`, table)); err != nil {
		return nil, errors.Wrapf(err, "cache: provision bin %q", bin)
	}
	if _, err := db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_expire ON %s(expire)`, table, table,
	)); err != nil {
		return nil, errors.Wrapf(err, "cache: provision bin %q", bin)
	}

	return &sqliteStorage{
		db:    db,
		table: table,
		cfg:   applyOptions(opts),
	}, nil
}

func (s *sqliteStorage) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *sqliteStorage) Fetch(ctx context.Context, cids []string) ([]Record, error) {
	if len(cids) == 0 {
		return nil, nil
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	args := make([]any, len(cids))
	for i, cid := range cids {
		args[i] = cid
	}
	rows, err := s.db.QueryContext(qctx, fmt.Sprintf(
		`SELECT cid, data, created, expire, serialized FROM %s WHERE cid IN (%s)`,
		s.table, placeholders(len(cids)),
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var serialized int
		if err := rows.Scan(&rec.CID, &rec.Data, &rec.Created, &rec.Expire, &serialized); err != nil {
			return nil, err
		}
		rec.Serialized = serialized != 0
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *sqliteStorage) Upsert(ctx context.Context, rec Record) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	serialized := 0
	if rec.Serialized {
		serialized = 1
	}
	_, err := s.db.ExecContext(qctx, fmt.Sprintf(
		`INSERT INTO %s (cid, data, created, expire, serialized) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cid) DO UPDATE SET
			data = excluded.data,
			created = excluded.created,
			expire = excluded.expire,
			serialized = excluded.serialized`, s.table,
	), rec.CID, rec.Data, rec.Created, rec.Expire, serialized)
	return err
}

func (s *sqliteStorage) Delete(ctx context.Context, cids []string) error {
	if len(cids) == 0 {
		return ErrEmptyBatch
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	args := make([]any, len(cids))
	for i, cid := range cids {
		args[i] = cid
	}
	_, err := s.db.ExecContext(qctx, fmt.Sprintf(
		`DELETE FROM %s WHERE cid IN (%s)`, s.table, placeholders(len(cids)),
	), args...)
	return err
}

// escapeLike makes a literal string safe inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *sqliteStorage) DeletePrefix(ctx context.Context, prefix string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(qctx, fmt.Sprintf(
		`DELETE FROM %s WHERE cid LIKE ? ESCAPE '\'`, s.table,
	), escapeLike(prefix)+"%")
	return err
}

func (s *sqliteStorage) DeleteExpired(ctx context.Context, cutoff int64) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(qctx, fmt.Sprintf(
		`DELETE FROM %s WHERE expire != ? AND expire <= ?`, s.table,
	), int64(Permanent), cutoff)
	return err
}

func (s *sqliteStorage) Truncate(ctx context.Context) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(qctx, fmt.Sprintf(`DELETE FROM %s`, s.table))
	return err
}

func (s *sqliteStorage) HasAny(ctx context.Context) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(qctx, fmt.Sprintf(
		`SELECT 1 FROM %s LIMIT 1`, s.table,
	)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
