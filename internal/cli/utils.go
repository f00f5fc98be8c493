// Package cli renders bizsearch responses for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/bizsearch/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	switch response.Mode {
	case models.ModeRejected:
		fmt.Fprintf(w, "\n%s\n\n", response.Message)
		return
	case models.ModeChat:
		if response.Answer != "" {
			fmt.Fprintf(w, "\n%s\n\n", response.Answer)
		} else {
			fmt.Fprintf(w, "\n%s\n\n", response.Message)
		}
		return
	case models.ModeExternal:
		fmt.Fprintf(w, "\nNo catalog match; %d online results in %dms\n\n", len(response.External), response.QueryTime)
		for i, rec := range response.External {
			writeExternalResult(w, i+1, rec)
		}
		return
	}

	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", len(response.Results), response.QueryTime)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.ScoredCandidate) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.3f | Rating: %.1f (%d reviews)\n",
		result.Rank, result.Score, result.Rating, result.Reviews)
	fmt.Fprintf(w, "%s\n", result.Name)
	if addr := result.DisplayAddress(); addr != "" {
		fmt.Fprintf(w, "%s\n", Truncate(addr, 120))
	}
	if result.PhoneNumber != "" {
		fmt.Fprintf(w, "Phone: %s\n", result.PhoneNumber)
	}
	if result.Website != "" {
		fmt.Fprintf(w, "Web: %s\n", result.Website)
	}
	if result.Explanation != "" {
		fmt.Fprintf(w, "Why: %s\n", result.Explanation)
	}
	fmt.Fprintln(w)
}

func writeExternalResult(w io.Writer, rank int, rec *models.ExternalRecord) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[online] %d. %s\n", rank, rec.Title)
	var stats []string
	if rec.Rating != nil {
		stats = append(stats, fmt.Sprintf("Rating: %.1f", *rec.Rating))
	}
	if rec.Reviews != nil {
		stats = append(stats, fmt.Sprintf("%d reviews", *rec.Reviews))
	}
	if len(stats) > 0 {
		fmt.Fprintf(w, "%s\n", strings.Join(stats, " | "))
	}
	if rec.Address != "" {
		fmt.Fprintf(w, "%s\n", Truncate(rec.Address, 120))
	}
	if rec.Phone != "" {
		fmt.Fprintf(w, "Phone: %s\n", rec.Phone)
	}
	fmt.Fprintln(w)
}

// WriteStatus writes a status payload (as returned by GET /api/v1/status).
func WriteStatus(w io.Writer, status map[string]interface{}, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintln(w, "bizsearch status")
	for _, key := range []string{"businesses", "storage_bytes", "missing_queries"} {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "  %-16s %v\n", key+":", v)
		}
	}
	if m, ok := status["model"].(map[string]interface{}); ok {
		fmt.Fprintf(w, "  %-16s %v\n", "model:", m["name"])
		if src, ok := m["source"].(string); ok && src != "" {
			fmt.Fprintf(w, "  %-16s %s\n", "model source:", src)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
