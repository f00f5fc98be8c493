package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
)

// SQLStorage implements Catalog over database/sql. The SQLite and PostgreSQL
// constructors differ only in driver, schema and placeholder dialect.
type SQLStorage struct {
	db      *sql.DB
	dialect Dialect
	path    string // sqlite database file, empty for postgres
}

// Dialect reports the placeholder dialect of the backing database.
func (s *SQLStorage) Dialect() Dialect {
	return s.dialect
}

// Lookup executes the compiled predicate. Rows with malformed numeric or
// timestamp columns are returned with those fields defaulted.
func (s *SQLStorage) Lookup(ctx context.Context, p query.Predicate, limit int) ([]models.BusinessRecord, error) {
	q, args := CompileLookup(p, limit, s.dialect)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	defer rows.Close()

	out := make([]models.BusinessRecord, 0, 16)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateBusiness inserts b and sets its ID. An empty CreatedAt is set to now.
func (s *SQLStorage) CreateBusiness(ctx context.Context, b *models.BusinessRecord) error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("business name is required")
	}
	if b.CreatedAt == "" {
		b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	err := s.db.QueryRowContext(ctx, rebind(insertBusinessSQL, s.dialect), insertArgs(b)...).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

const insertBusinessSQL = `INSERT INTO businesses (name, address, area, city, state, phone_number, phone_digits,
	website, category, subcategory, reviews_count, reviews_average, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`

func insertArgs(b *models.BusinessRecord) []interface{} {
	var avg interface{}
	if b.ReviewsAverage != nil {
		avg = *b.ReviewsAverage
	}
	reviews := b.ReviewsCount
	if reviews < 0 {
		reviews = 0
	}
	return []interface{}{
		b.Name, b.Address, b.Area, b.City, b.State, b.PhoneNumber, PhoneDigits(b.PhoneNumber),
		b.Website, b.Category, b.Subcategory, reviews, avg, b.CreatedAt,
	}
}

// BatchCreateBusinesses inserts all businesses in one transaction.
func (s *SQLStorage) BatchCreateBusinesses(ctx context.Context, businesses []*models.BusinessRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, rebind(insertBusinessSQL, s.dialect))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, b := range businesses {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("row %d: business name is required", i+1)
		}
		if b.CreatedAt == "" {
			b.CreatedAt = now
		}
		if err := stmt.QueryRowContext(ctx, insertArgs(b)...).Scan(&b.ID); err != nil {
			return fmt.Errorf("row %d: failed to insert business: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// GetBusiness returns a business by ID.
func (s *SQLStorage) GetBusiness(ctx context.Context, id int64) (*models.BusinessRecord, error) {
	row := s.db.QueryRowContext(ctx,
		rebind(`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, s.dialect), id)
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return b, err
}

// ListBusinesses returns businesses ordered by id.
func (s *SQLStorage) ListBusinesses(ctx context.Context, offset, limit int) ([]*models.BusinessRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		rebind(`SELECT `+businessColumns+` FROM businesses ORDER BY id LIMIT ? OFFSET ?`, s.dialect),
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BusinessRecord
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindByPhone returns the business whose phone number has the same digits as
// phone. Phone numbers are not unique; the lowest id wins.
func (s *SQLStorage) FindByPhone(ctx context.Context, phone string) (*models.BusinessRecord, error) {
	digits := PhoneDigits(phone)
	if digits == "" {
		return nil, fmt.Errorf("%w: empty phone number", ErrNotFound)
	}
	row := s.db.QueryRowContext(ctx,
		rebind(`SELECT `+businessColumns+` FROM businesses WHERE phone_digits = ? ORDER BY id LIMIT 1`, s.dialect),
		digits,
	)
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: phone %s", ErrNotFound, phone)
	}
	return b, err
}

// CountBusinesses returns the number of stored businesses.
func (s *SQLStorage) CountBusinesses(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

// PhoneDigits strips everything but digits from a phone number.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBusiness reads one row of businessColumns. Numeric and timestamp
// columns are scanned loosely so a bad value defaults instead of failing.
func scanBusiness(row rowScanner) (*models.BusinessRecord, error) {
	var (
		b                                       models.BusinessRecord
		name, address, area, city, state        sql.NullString
		phone, website, category, subcategory   sql.NullString
		reviewsCount, reviewsAverage, createdAt interface{}
	)
	err := row.Scan(&b.ID, &name, &address, &area, &city, &state, &phone, &website,
		&category, &subcategory, &reviewsCount, &reviewsAverage, &createdAt)
	if err != nil {
		return nil, err
	}
	b.Name = name.String
	b.Address = address.String
	b.Area = area.String
	b.City = city.String
	b.State = state.String
	b.PhoneNumber = phone.String
	b.Website = website.String
	b.Category = category.String
	b.Subcategory = subcategory.String
	b.ReviewsCount = models.ParseReviewCount(reviewsCount)
	b.ReviewsAverage = models.ParseRating(reviewsAverage)
	b.CreatedAt = timestampText(createdAt)
	return &b, nil
}

func timestampText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
