// Package search routes a free-text query to the catalog, the external
// provider or the dialogue assistant and assembles the response.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/bizsearch/internal/chat"
	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/hyperjump/bizsearch/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrCatalogUnavailable wraps catalog lookup failures.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrAssistantUnavailable wraps dialogue assistant failures.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

const (
	// RejectedMessage is returned for degenerate or abusive input.
	RejectedMessage = "Please describe the business you are looking for, for example \"dentist in Andheri\"."
	// NoAssistantMessage is returned for open questions when no assistant is configured.
	NoAssistantMessage = "The assistant is not available. Try a business search such as \"best cafe in Bandra\"."
)

// Lookup is the part of the catalog the engine needs.
type Lookup interface {
	Lookup(ctx context.Context, p query.Predicate, limit int) ([]models.BusinessRecord, error)
}

// ExternalSearcher queries a third-party provider when the catalog has no match.
type ExternalSearcher interface {
	Search(ctx context.Context, text string) ([]models.ExternalRecord, error)
}

// MissingRecorder remembers queries the catalog could not answer.
type MissingRecorder interface {
	Record(query string, results []models.ExternalRecord)
}

// Engine runs the query pipeline.
type Engine struct {
	catalog       Lookup
	ranker        *ranking.Ranker
	classifier    *query.Classifier
	assistant     chat.Assistant
	external      ExternalSearcher
	missing       MissingRecorder
	maxCandidates int
	logger        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces the default intent classifier.
func WithClassifier(c *query.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithAssistant enables the dialogue path.
func WithAssistant(a chat.Assistant) Option {
	return func(e *Engine) { e.assistant = a }
}

// WithExternalSearch enables the fallback provider.
func WithExternalSearch(s ExternalSearcher) Option {
	return func(e *Engine) { e.external = s }
}

// WithMissingLog records catalog misses.
func WithMissingLog(m MissingRecorder) Option {
	return func(e *Engine) { e.missing = m }
}

// WithMaxCandidates caps the rows requested from the catalog.
func WithMaxCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= storage.MaxLookupRows {
			e.maxCandidates = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine over catalog and ranker.
func NewEngine(catalog Lookup, ranker *ranking.Ranker, opts ...Option) *Engine {
	e := &Engine{
		catalog:       catalog,
		ranker:        ranker,
		classifier:    query.NewClassifier(),
		maxCandidates: storage.MaxLookupRows,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search answers q. Input defects are reported in the response, not as
// errors; only collaborator failures are returned.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	logger := e.logger.With(zap.String("search_id", uuid.NewString()))

	resp := &models.SearchResponse{
		Query:   q.Query,
		Results: []*models.ScoredCandidate{},
	}
	defer func() {
		resp.QueryTime = time.Since(startTime).Milliseconds()
	}()

	if query.IsAbusive(q.Query) {
		logger.Debug("rejected query", zap.String("query", q.Query))
		resp.Mode = models.ModeRejected
		resp.Message = RejectedMessage
		return resp, nil
	}

	if !e.classifier.NeedsStructuredLookup(q.Query) {
		return e.converse(ctx, logger, q, resp)
	}

	predicate := query.BuildPredicate(q.Query)
	resp.Predicate = &models.PredicateView{
		Keywords:        predicate.Keywords,
		Locality:        predicate.Locality,
		RawFallbackTerm: predicate.RawFallbackTerm,
	}

	candidates, err := e.catalog.Lookup(ctx, predicate, e.maxCandidates)
	if err != nil {
		logger.Error("catalog lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	ranked := e.ranker.Rank(candidates, q.Query, q.Limit)
	if !q.NoExplain {
		ranking.ExplainAll(ranked)
	}
	logger.Debug("catalog search",
		zap.Strings("keywords", predicate.Terms()),
		zap.String("locality", predicate.Locality),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)),
	)

	if len(ranked) > 0 {
		resp.Mode = models.ModeCatalog
		resp.Results = ranked
		return resp, nil
	}

	resp.Mode = models.ModeExternal
	resp.External = e.searchExternal(ctx, logger, q)
	return resp, nil
}

func (e *Engine) converse(ctx context.Context, logger *zap.Logger, q *models.SearchQuery, resp *models.SearchResponse) (*models.SearchResponse, error) {
	resp.Mode = models.ModeChat
	if e.assistant == nil {
		resp.Message = NoAssistantMessage
		return resp, nil
	}
	answer, err := e.assistant.Reply(ctx, q.Query)
	if err != nil {
		logger.Error("assistant failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	resp.Answer = answer
	return resp, nil
}

// searchExternal returns the ranked external results, or an empty list when
// the provider is not configured or fails. Every catalog miss is recorded.
func (e *Engine) searchExternal(ctx context.Context, logger *zap.Logger, q *models.SearchQuery) []*models.ExternalRecord {
	var ranked []models.ExternalRecord
	if e.external != nil {
		records, err := e.external.Search(ctx, q.Query)
		if err != nil {
			logger.Error("external search failed", zap.Error(err))
		} else {
			ranked = ranking.RankExternal(records)
		}
	}
	if e.missing != nil {
		e.missing.Record(q.Query, ranked)
	}

	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	out := make([]*models.ExternalRecord, len(ranked))
	for i := range ranked {
		out[i] = &ranked[i]
	}
	return out
}
