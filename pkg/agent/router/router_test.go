package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/llm"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantCategory state.Category
		wantUseRAG   bool
	}{
		{
			name:         "sermon search triggers retrieval",
			response:     `{"category": "SERMON_SEARCH", "use_rag": true, "reason": "과거 설교 검색 요청"}`,
			wantCategory: state.CategorySermonSearch,
			wantUseRAG:   true,
		},
		{
			name:         "scripture question maps to biblical interpretation",
			response:     `{"category": "SCRIPTURE_QA", "use_rag": true, "reason": "성경 구절 질문"}`,
			wantCategory: state.CategoryBiblicalInterpretation,
			wantUseRAG:   true,
		},
		{
			name:         "greeting skips retrieval",
			response:     `{"category": "SMALL_TALK", "use_rag": false, "reason": "인사"}`,
			wantCategory: state.CategorySmallTalk,
			wantUseRAG:   false,
		},
		{
			name:         "json wrapped in prose still parses",
			response:     "물론입니다!\n```json\n{\"category\": \"SERMON_PREP\", \"use_rag\": true, \"reason\": \"설교 준비\"}\n```",
			wantCategory: state.CategorySermonPrep,
			wantUseRAG:   true,
		},
		{
			name:         "unknown category token folds to other",
			response:     `{"category": "WEATHER", "use_rag": false, "reason": "?"}`,
			wantCategory: state.CategoryOther,
			wantUseRAG:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{response: tt.response}
			r := NewRouter(provider, "test-model", zap.NewNop())

			decision, err := r.Classify(context.Background(), "질문입니다", nil, state.ProfileResearch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, decision.Category)
			assert.Equal(t, tt.wantUseRAG, decision.UseRAG)
		})
	}
}

func TestClassifyFailsClosedOnGarbage(t *testing.T) {
	provider := &stubProvider{response: "죄송하지만 분류할 수 없습니다."}
	r := NewRouter(provider, "test-model", zap.NewNop())

	decision, err := r.Classify(context.Background(), "마태복음 5장 설교 찾아줘", nil, state.ProfileResearch)
	require.Error(t, err)
	assert.Equal(t, state.CategoryOther, decision.Category)
	assert.False(t, decision.UseRAG)
}

func TestClassifyFailsClosedAfterRetries(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	r := NewRouter(provider, "test-model", zap.NewNop())

	decision, err := r.Classify(context.Background(), "고난에 대한 설교", nil, state.ProfileResearch)
	require.Error(t, err)
	assert.False(t, decision.UseRAG)
	assert.Equal(t, state.CategoryOther, decision.Category)
	assert.Equal(t, int(maxRetries)+1, provider.calls)
}

func TestClassifyEmptyInput(t *testing.T) {
	provider := &stubProvider{response: `{"category": "OTHER", "use_rag": false}`}
	r := NewRouter(provider, "test-model", zap.NewNop())

	decision, err := r.Classify(context.Background(), "   ", nil, state.ProfileResearch)
	require.NoError(t, err)
	assert.False(t, decision.UseRAG)
	assert.Zero(t, provider.calls)
}
