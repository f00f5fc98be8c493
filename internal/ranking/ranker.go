// Package ranking scores, deduplicates and orders business candidates,
// optionally blending a learned model with the deterministic heuristic.
package ranking

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
	"go.uber.org/zap"
)

// Ranker turns catalog rows into an ordered list of scored candidates.
// It performs no I/O and is safe for concurrent use.
type Ranker struct {
	config *RankingConfig
	models *ModelHandle
	logger *zap.Logger
	now    func() time.Time
}

// NewRanker creates a Ranker. A nil config uses defaults; a nil handle means heuristic only.
func NewRanker(config *RankingConfig, handle *ModelHandle) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	return &Ranker{
		config: config,
		models: handle,
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// WithLogger sets the logger used for model fallback and per-record failures.
func (r *Ranker) WithLogger(logger *zap.Logger) *Ranker {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithClock overrides the time source used for freshness.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// GetConfig returns the ranking configuration.
func (r *Ranker) GetConfig() *RankingConfig {
	return r.config
}

// Rank filters closed and duplicate listings, scores the rest and returns at
// most topN candidates in descending order. topN <= 0 uses the configured default.
// The result is never nil.
func (r *Ranker) Rank(candidates []models.BusinessRecord, q string, topN int) []*models.ScoredCandidate {
	if topN <= 0 {
		topN = r.config.TopN
	}
	now := r.now()
	queryTokens := query.Tokenize(q)
	seen := make(map[[2]string]struct{}, len(candidates))
	ranked := make([]*models.ScoredCandidate, 0, len(candidates))

	for i := range candidates {
		rec := &candidates[i]
		if IsPermanentlyClosed(rec) {
			continue
		}
		key := rec.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		sc, err := r.scoreRecord(rec, queryTokens, now)
		if err != nil {
			r.logger.Warn("skipping candidate", zap.Int64("id", rec.ID), zap.Error(err))
			continue
		}
		ranked = append(ranked, sc)
	}

	if len(ranked) == 0 {
		return ranked
	}

	r.blend(ranked)
	SortCandidates(ranked)
	ranked = TopN(ranked, topN)
	for i, sc := range ranked {
		sc.Rank = i + 1
	}
	return ranked
}

// scoreRecord computes the feature vector and heuristic score of one record.
// A panic is converted into an error so one bad record cannot abort the batch.
func (r *Ranker) scoreRecord(rec *models.BusinessRecord, queryTokens map[string]struct{}, now time.Time) (sc *models.ScoredCandidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			sc, err = nil, fmt.Errorf("scoring panicked: %v", p)
		}
	}()

	cfg := r.config
	rating := cfg.DefaultRating
	if rec.ReviewsAverage != nil {
		rating = *rec.ReviewsAverage
	}
	reviews := rec.ReviewsCount
	if reviews < 0 {
		reviews = 0
	}

	base := rating*cfg.RatingWeight + float64(reviews)*cfg.ReviewWeight
	info := InfoCompleteness(rec)
	freshness := 0.0
	if IsFresh(rec.CreatedAt, now, time.Duration(cfg.FreshnessWindowDays)*24*time.Hour) {
		freshness = cfg.FreshnessBoost
	}
	relevance := Relevance(rec, queryTokens)
	heuristic := Round(base+info*cfg.InfoWeight+freshness+relevance*cfg.RelevanceWeight, 3)

	return &models.ScoredCandidate{
		BusinessRecord: *rec,
		Features:       []float64{base, info, relevance, Popularity(reviews)},
		Rating:         rating,
		Reviews:        reviews,
		InfoScore:      Round(info, 3),
		InfoRatio:      info,
		Freshness:      freshness,
		Relevance:      relevance,
		HeuristicScore: heuristic,
		Score:          heuristic,
	}, nil
}

// blend overwrites heuristic scores with the current model's predictions.
// On a failed prediction it retries once with vectors truncated to the
// model's expected width; if that is impossible or fails, heuristics stay.
func (r *Ranker) blend(ranked []*models.ScoredCandidate) {
	scorer := r.models.Load()
	batch := make([][]float64, len(ranked))
	for i, sc := range ranked {
		batch[i] = sc.Features
	}

	scores, err := safePredict(scorer, batch)
	if err != nil {
		if errors.Is(err, ErrScorerUnavailable) {
			return
		}
		n, known := scorer.ExpectedFeatureCount()
		if !known || n <= 0 || n >= FeatureCount {
			r.logger.Debug("model prediction failed, keeping heuristic scores",
				zap.String("model", scorer.Name()), zap.Error(err))
			return
		}
		scores, err = safePredict(scorer, truncateFeatures(batch, n))
		if err != nil {
			r.logger.Debug("model retry failed, keeping heuristic scores",
				zap.String("model", scorer.Name()), zap.Int("features", n), zap.Error(err))
			return
		}
	}

	for i, sc := range ranked {
		sc.Score = scores[i]
		sc.ModelScored = true
	}
}

// safePredict runs predict and reports a panicking model as an error.
func safePredict(s Scorer, batch [][]float64) (scores []float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			scores, err = nil, fmt.Errorf("model panicked: %v", p)
		}
	}()
	return predict(s, batch)
}

// SortCandidates orders candidates descending by score, then info completeness,
// then rating, then review count. Equal candidates keep their input order.
func SortCandidates(ranked []*models.ScoredCandidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.InfoScore != b.InfoScore {
			return a.InfoScore > b.InfoScore
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.Reviews > b.Reviews
	})
}

// TopN returns the first n candidates.
func TopN(ranked []*models.ScoredCandidate, n int) []*models.ScoredCandidate {
	if n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
