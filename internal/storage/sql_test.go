package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
)

func newTestStore(t *testing.T) *SQLStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ratingPtr(v float64) *float64 { return &v }

func seed(t *testing.T, store *SQLStorage, businesses ...*models.BusinessRecord) {
	t.Helper()
	if err := store.BatchCreateBusinesses(context.Background(), businesses); err != nil {
		t.Fatal(err)
	}
}

func TestSQLStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &models.BusinessRecord{
		Name:           "Smile Dental Clinic",
		Address:        "12 Link Road",
		City:           "Mumbai",
		PhoneNumber:    "+91 22-1234 5678",
		Category:       "Health",
		Subcategory:    "Dentist",
		ReviewsCount:   120,
		ReviewsAverage: ratingPtr(4.6),
	}
	if err := store.CreateBusiness(ctx, b); err != nil {
		t.Fatal(err)
	}
	if b.ID == 0 {
		t.Fatal("ID should be set")
	}
	if b.CreatedAt == "" {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetBusiness(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != b.Name || got.ReviewsCount != 120 || got.ReviewsAverage == nil || *got.ReviewsAverage != 4.6 {
		t.Errorf("got %+v", got)
	}

	if err := store.CreateBusiness(ctx, &models.BusinessRecord{Name: "  "}); err == nil {
		t.Error("expected error for empty name")
	}

	_, err = store.GetBusiness(ctx, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := store.CountBusinesses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 business, got %d", n)
	}

	list, err := store.ListBusinesses(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestSQLStorage_Lookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seed(t, store,
		&models.BusinessRecord{Name: "Bright Smile", City: "Andheri", Subcategory: "Dentist"},
		&models.BusinessRecord{Name: "Andheri Dentist (Permanently Closed)", City: "Andheri", Subcategory: "Dentist"},
		&models.BusinessRecord{Name: "Tooth Care", City: "Bandra", Category: "Dentist"},
		&models.BusinessRecord{Name: "Pizza Place", City: "Andheri", Category: "Restaurant"},
		&models.BusinessRecord{Name: "100% Dentist", City: "Andheri"},
	)

	got, err := store.Lookup(ctx, query.BuildPredicate("best dentist in andheri"), 200)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, b := range got {
		names[b.Name] = true
	}
	if len(got) != 2 || !names["Bright Smile"] || !names["100% Dentist"] {
		t.Errorf("unexpected lookup result %v", names)
	}

	got, err = store.Lookup(ctx, query.Predicate{Keywords: []string{"100%"}}, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "100% Dentist" {
		t.Errorf("expected literal %% match, got %+v", got)
	}

	got, err = store.Lookup(ctx, query.Predicate{Keywords: []string{"dentist"}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected limit 1, got %d", len(got))
	}

	got, err = store.Lookup(ctx, query.Predicate{Keywords: []string{"x' OR '1'='1"}}, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("injection attempt matched %d rows", len(got))
	}
}

func TestSQLStorage_LenientColumns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO businesses (name, city, reviews_count, reviews_average, created_at) VALUES (?, ?, ?, ?, ?)`,
		"Odd Data Salon", "Pune", "lots", "great", nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Lookup(ctx, query.Predicate{Keywords: []string{"salon"}}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].ReviewsCount != 0 || got[0].ReviewsAverage != nil || got[0].CreatedAt != "" {
		t.Errorf("expected defaulted fields, got %+v", got[0])
	}
}

func TestSQLStorage_FindByPhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first := &models.BusinessRecord{Name: "First", PhoneNumber: "+91 98200 11111"}
	second := &models.BusinessRecord{Name: "Second", PhoneNumber: "919820011111"}
	seed(t, store, first, second)

	got, err := store.FindByPhone(ctx, "(91) 98200-11111")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID {
		t.Errorf("expected lowest id %d, got %d", first.ID, got.ID)
	}

	if _, err := store.FindByPhone(ctx, "000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByPhone(ctx, "n/a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty digits, got %v", err)
	}
}

func TestSQLStorage_BatchRejectsUnnamed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	err := store.BatchCreateBusinesses(ctx, []*models.BusinessRecord{{Name: "Ok"}, {Name: ""}})
	if err == nil {
		t.Fatal("expected error")
	}
	n, _ := store.CountBusinesses(ctx)
	if n != 0 {
		t.Errorf("expected rollback, got %d rows", n)
	}
}

func TestPhoneDigits(t *testing.T) {
	if got := PhoneDigits("+1 (555) 010-9999"); got != "15550109999" {
		t.Errorf("got %q", got)
	}
}
