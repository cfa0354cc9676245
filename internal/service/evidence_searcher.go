package service

import (
	"context"

	"sermon-agent-be/internal/repository/unitofwork"
	"sermon-agent-be/pkg/agent/retriever"
	"sermon-agent-be/pkg/agent/state"
)

// evidenceSearcher adapts the pgvector-backed embedding repository to the
// retriever's search port.
type evidenceSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewEvidenceSearcher(uowFactory unitofwork.RepositoryFactory) retriever.EvidenceSearcher {
	return &evidenceSearcher{uowFactory: uowFactory}
}

func (s *evidenceSearcher) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]state.SermonCandidate, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	hits, err := uow.SermonEmbeddingRepository().SearchSimilarWithScore(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]state.SermonCandidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, state.SermonCandidate{
			SermonID:     hit.SermonId.String(),
			Title:        hit.Title,
			SermonDate:   hit.SermonDate,
			Scripture:    hit.Scripture,
			Summary:      hit.Summary,
			Preacher:     hit.Preacher,
			VideoURL:     hit.VideoURL,
			ThumbnailURL: hit.ThumbnailURL,
			Score:        hit.Similarity,
			SourceField:  hit.Field,
		})
	}
	return candidates, nil
}
