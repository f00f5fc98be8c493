package models

import (
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SearchQuery
		wantErr   bool
		wantLimit int
	}{
		{"empty query", &SearchQuery{Query: ""}, true, 0},
		{"whitespace query", &SearchQuery{Query: "   "}, true, 0},
		{"sets default limit", &SearchQuery{Query: "dentist in pune"}, false, 10},
		{"caps limit", &SearchQuery{Query: "x y", Limit: 500}, false, 50},
		{"keeps limit", &SearchQuery{Query: "x y", Limit: 3}, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		nil_ bool
	}{
		{"nil", nil, 0, true},
		{"float", 4.5, 4.5, false},
		{"int64", int64(4), 4, false},
		{"string", " 3.9 ", 3.9, false},
		{"bytes", []byte("4.1"), 4.1, false},
		{"garbage", "N/A", 0, true},
		{"empty", "", 0, true},
		{"negative", -1.0, 0, true},
		{"above scale", 7.2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRating(tt.in)
			if tt.nil_ {
				if got != nil {
					t.Errorf("ParseRating(%v) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ParseRating(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
	}{
		{nil, 0},
		{int64(120), 120},
		{"1,204", 1204},
		{"lots", 0},
		{-5, 0},
		{12.9, 12},
	}
	for _, tt := range tests {
		if got := ParseReviewCount(tt.in); got != tt.want {
			t.Errorf("ParseReviewCount(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBusinessRecord_DedupKeyAndAddress(t *testing.T) {
	a := BusinessRecord{Name: "  Smile Dental ", Address: "12 MG Road"}
	b := BusinessRecord{Name: "smile dental", Address: " 12 mg road "}
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("expected equal keys: %v vs %v", a.DedupKey(), b.DedupKey())
	}

	r := BusinessRecord{Address: "12 MG Road", City: "Pune", State: " "}
	if got := r.DisplayAddress(); got != "12 MG Road, Pune" {
		t.Errorf("DisplayAddress() = %q", got)
	}
}
