package storage

import (
	"context"
	"os"
)

// SizeBytes reports how much space the catalog occupies. For SQLite this is
// the database file plus its WAL and shared-memory files; for PostgreSQL it
// is pg_database_size of the current database.
func (s *SQLStorage) SizeBytes(ctx context.Context) (int64, error) {
	if s.dialect == DialectPostgres {
		var n int64
		err := s.db.QueryRowContext(ctx, `SELECT pg_database_size(current_database())`).Scan(&n)
		return n, err
	}
	return fileSizes(s.path, s.path+"-wal", s.path+"-shm")
}

// fileSizes sums the sizes of the given files. Missing files contribute 0.
func fileSizes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
