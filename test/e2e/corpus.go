// Package e2e provides end-to-end tests over a generated business catalog and a set of queries.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/bizsearch/internal/models"
)

// QueryTestCase defines a query and the business that must rank first for it.
type QueryTestCase struct {
	Query        string
	ExpectedName string
	// ExpectedCity is the city every catalog result must be in; empty means no locality.
	ExpectedCity string
	Description  string
}

// Corpus holds listings and query test cases for E2E tests.
type Corpus struct {
	Businesses   []*models.BusinessRecord
	TestCases    []QueryTestCase
	TotalQueries int
}

var corpusCategories = []struct {
	category    string
	subcategory string
	noun        string
}{
	{"Dentist", "Dental Clinic", "dentist"},
	{"Restaurant", "North Indian", "restaurant"},
	{"Hospital", "Multispeciality", "hospital"},
	{"Salon", "Beauty Salon", "salon"},
	{"Bakery", "Cake Shop", "bakery"},
	{"Gym", "Fitness Centre", "gym"},
	{"Marketing", "SEO Agency", "seo"},
	{"Pharmacy", "Medical Store", "pharmacy"},
}

var corpusCities = []string{"Pune", "Mumbai", "Delhi", "Bangalore", "Chennai"}

// BuildCorpus returns one strong and two weaker listings per (category, city)
// pair, one permanently closed decoy per category, and a query per pair.
func BuildCorpus() *Corpus {
	var businesses []*models.BusinessRecord
	var cases []QueryTestCase
	for ci, cat := range corpusCategories {
		for ti, city := range corpusCities {
			star := fmt.Sprintf("%s Star %s", city, cat.category)
			strong := 4.8
			businesses = append(businesses, &models.BusinessRecord{
				Name:           star,
				Address:        fmt.Sprintf("%d Main Road", ci*10+ti+1),
				Area:           "Central",
				City:           city,
				State:          "IN",
				PhoneNumber:    fmt.Sprintf("+91 %02d %04d 0001", ci, ti),
				Website:        fmt.Sprintf("https://%s.example", strings.ToLower(strings.ReplaceAll(star, " ", "-"))),
				Category:       cat.category,
				Subcategory:    cat.subcategory,
				ReviewsCount:   400 + ci*10 + ti,
				ReviewsAverage: &strong,
			})
			for k := 1; k <= 2; k++ {
				weak := 3.0 + 0.3*float64(k)
				businesses = append(businesses, &models.BusinessRecord{
					Name:           fmt.Sprintf("%s %s No %d", city, cat.category, k),
					Address:        fmt.Sprintf("%d Side Street", k),
					City:           city,
					Category:       cat.category,
					ReviewsCount:   10 * k,
					ReviewsAverage: &weak,
				})
			}
			cases = append(cases, QueryTestCase{
				Query:        fmt.Sprintf("best %s in %s", cat.noun, strings.ToLower(city)),
				ExpectedName: star,
				ExpectedCity: city,
				Description:  fmt.Sprintf("%s in %s", cat.category, city),
			})
		}
		perfect := 5.0
		businesses = append(businesses, &models.BusinessRecord{
			Name:           fmt.Sprintf("Old %s (Permanently Closed)", cat.category),
			Address:        "Nowhere",
			City:           corpusCities[0],
			Category:       cat.category,
			ReviewsCount:   5000,
			ReviewsAverage: &perfect,
		})
	}
	return &Corpus{
		Businesses:   businesses,
		TestCases:    cases,
		TotalQueries: len(cases),
	}
}
