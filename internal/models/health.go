package models

import "strings"

// UpdateSuggestions lists what a business owner could add or improve in the listing.
func UpdateSuggestions(b *BusinessRecord) []string {
	suggestions := []string{}
	if strings.TrimSpace(b.Website) == "" {
		suggestions = append(suggestions, "Add a website to improve trust")
	}
	if strings.TrimSpace(b.PhoneNumber) == "" {
		suggestions = append(suggestions, "Add a phone number so customers can contact you")
	}
	if strings.TrimSpace(b.Address) == "" {
		suggestions = append(suggestions, "Add a complete address")
	}
	if b.ReviewsCount < 5 {
		suggestions = append(suggestions, "Get more customer reviews")
	}
	rating := 0.0
	if b.ReviewsAverage != nil {
		rating = *b.ReviewsAverage
	}
	if rating < 4 {
		suggestions = append(suggestions, "Improve service quality to increase ratings")
	}
	if strings.TrimSpace(b.Subcategory) == "" {
		suggestions = append(suggestions, "Add a subcategory for better visibility")
	}
	return suggestions
}
