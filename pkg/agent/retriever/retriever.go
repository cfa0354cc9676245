package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent"
	"sermon-agent-be/pkg/agent/state"
)

const maxRetries = 2

// Defaults applied when options arrive out of range.
const (
	defaultRawTopK         = 10
	defaultContextTopK     = 5
	defaultSimilarityFloor = 0.3
)

// Embedder yields a query vector, typically backed by the embedding cache.
type Embedder interface {
	GetOrCompute(ctx context.Context, text string) ([]float32, error)
}

// EvidenceSearcher runs a nearest-neighbor search over the sermon embedding
// index and returns candidates ranked by cosine similarity, highest first,
// ties broken by more recent sermon date.
type EvidenceSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]state.SermonCandidate, error)
}

// Options bound the retrieval pool and the evidence context.
type Options struct {
	RawTopK         int
	ContextTopK     int
	SimilarityFloor float64
}

// Retriever searches the sermon archive for a turn's evidence set. The raw
// pool is floor-filtered, deduplicated per sermon, and truncated to the
// context size before it reaches the composer.
type Retriever struct {
	embedder Embedder
	searcher EvidenceSearcher
	opts     Options
	logger   *zap.Logger
}

func NewRetriever(embedder Embedder, searcher EvidenceSearcher, opts Options, logger *zap.Logger) *Retriever {
	if opts.RawTopK <= 0 {
		logger.Warn("raw top-k out of range, using default",
			zap.Int("raw_top_k", opts.RawTopK),
			zap.Int("default", defaultRawTopK))
		opts.RawTopK = defaultRawTopK
	}
	if opts.ContextTopK <= 0 {
		logger.Warn("context top-k out of range, using default",
			zap.Int("context_top_k", opts.ContextTopK),
			zap.Int("default", defaultContextTopK))
		opts.ContextTopK = defaultContextTopK
	}
	if opts.SimilarityFloor < 0 || opts.SimilarityFloor > 1 {
		logger.Warn("similarity floor outside [0,1], using default",
			zap.Float64("similarity_floor", opts.SimilarityFloor),
			zap.Float64("default", defaultSimilarityFloor))
		opts.SimilarityFloor = defaultSimilarityFloor
	}
	if opts.ContextTopK > opts.RawTopK {
		// context can never exceed the raw candidate pool
		logger.Warn("context top-k exceeds raw top-k, clamping",
			zap.Int("context_top_k", opts.ContextTopK),
			zap.Int("raw_top_k", opts.RawTopK))
		opts.ContextTopK = opts.RawTopK
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		opts:     opts,
		logger:   logger,
	}
}

// Retrieve embeds the query, searches the archive, and selects the evidence
// snippets. A non-nil error reports a provider failure the caller may log;
// the returned Retrieval is still well-formed (explicitly empty) so the
// composer can proceed without sourced claims.
func (r *Retriever) Retrieve(ctx context.Context, userInput string, mode state.ProfileMode) (state.Retrieval, []state.SermonCandidate, error) {
	query := buildSearchQuery(userInput, mode)
	if strings.TrimSpace(userInput) == "" {
		return state.Retrieval{SearchQuery: query, Empty: true}, nil, nil
	}

	var embedding []float32
	embed := func() error {
		var err error
		embedding, err = r.embedder.GetOrCompute(ctx, query)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(embed, policy); err != nil {
		r.logger.Warn("query embedding failed, returning empty context", zap.Error(err))
		return state.Retrieval{SearchQuery: query, Empty: true}, nil,
			&agent.TransientError{Op: "retriever.embed", Err: err}
	}

	raw, err := r.searcher.SearchSimilar(ctx, embedding, r.opts.RawTopK)
	if err != nil {
		r.logger.Warn("similarity search failed, returning empty context", zap.Error(err))
		return state.Retrieval{SearchQuery: query, Empty: true}, nil,
			&agent.TransientError{Op: "retriever.search", Err: err}
	}

	snippets := r.selectSnippets(raw)

	retrieval := state.Retrieval{
		SearchQuery: query,
		Raw:         raw,
		Empty:       len(snippets) == 0,
	}

	r.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("raw", len(raw)),
		zap.Int("selected", len(snippets)))
	return retrieval, snippets, nil
}

// selectSnippets applies the hard similarity floor, keeps only the highest
// scoring hit per sermon, and truncates to the context size in score order.
func (r *Retriever) selectSnippets(raw []state.SermonCandidate) []state.SermonCandidate {
	best := make(map[string]state.SermonCandidate, len(raw))
	order := make([]string, 0, len(raw))
	for _, c := range raw {
		if c.Score < r.opts.SimilarityFloor {
			continue
		}
		prev, seen := best[c.SermonID]
		if !seen {
			best[c.SermonID] = c
			order = append(order, c.SermonID)
			continue
		}
		if c.Score > prev.Score {
			best[c.SermonID] = c
		}
	}

	selected := make([]state.SermonCandidate, 0, len(order))
	for _, id := range order {
		selected = append(selected, best[id])
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Score != selected[j].Score {
			return selected[i].Score > selected[j].Score
		}
		return selected[i].SermonDate.After(selected[j].SermonDate)
	})

	if len(selected) > r.opts.ContextTopK {
		selected = selected[:r.opts.ContextTopK]
	}
	return selected
}

// buildSearchQuery biases the embedding toward the active profile so research
// turns surface exegetical material and counseling turns surface applied
// material. The bias changes retrieval input only, never the floor or k.
func buildSearchQuery(userInput string, mode state.ProfileMode) string {
	base := strings.TrimSpace(userInput)

	prefix := map[state.ProfileMode]string{
		state.ProfileResearch:   "신학적 해석, 본문 연구, 설교 구조",
		state.ProfileCounseling: "실생활 적용, 목회 상담, 공동체",
		state.ProfileEducation:  "교육적 설명, 이해하기 쉬운",
	}[mode]

	if prefix == "" || base == "" {
		return base
	}
	return prefix + " " + base
}
