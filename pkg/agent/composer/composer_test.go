package composer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/llm"
)

type stubProvider struct {
	response   string
	err        error
	lastPrompt string
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) > 0 {
		p.lastPrompt = history[len(history)-1].Content
	}
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func snippet(id, title, scriptureRef string) state.SermonCandidate {
	return state.SermonCandidate{
		SermonID:     id,
		Title:        title,
		Scripture:    scriptureRef,
		Summary:      "요약",
		SermonDate:   date("2024-03-10"),
		ThumbnailURL: "https://cdn.example.com/thumbs/" + id + ".jpg",
		Score:        0.81,
	}
}

func TestComposeCitesMentionedSermons(t *testing.T) {
	provider := &stubProvider{
		response: "'심령이 가난한 자' 설교에서 마태복음 5장 3절을 본문으로 팔복을 다루셨습니다.",
	}
	c := NewComposer(provider, "test-model", zap.NewNop())

	answer := c.Compose(context.Background(), Input{
		UserInput:   "마태복음 5장 3절로 설교한 적이 있나요?",
		ProfileMode: state.ProfileResearch,
		Category:    state.CategorySermonSearch,
		Snippets: []state.SermonCandidate{
			snippet("s1", "심령이 가난한 자", "마태복음 5:3"),
			snippet("s2", "온유한 자의 복", "마태복음 5:5"),
		},
	})

	require.Len(t, answer.References, 1)
	assert.Equal(t, "s1", answer.References[0].SermonID)
	assert.Equal(t, "2024년 03월 10일", answer.References[0].Date)
	assert.Equal(t, "https://cdn.example.com/thumbs/s1.jpg", answer.References[0].ThumbnailURL)
	assert.Contains(t, answer.ScriptureRefs, "마태복음 5:3")
}

func TestComposeFallsBackToFullEvidenceSet(t *testing.T) {
	provider := &stubProvider{
		response: "과거 설교에서 이 본문을 다룬 기록이 있습니다.",
	}
	c := NewComposer(provider, "test-model", zap.NewNop())

	answer := c.Compose(context.Background(), Input{
		UserInput:   "팔복 설교가 있나요?",
		ProfileMode: state.ProfileResearch,
		Category:    state.CategorySermonSearch,
		Snippets: []state.SermonCandidate{
			snippet("s1", "심령이 가난한 자", "마태복음 5:3"),
			snippet("s2", "온유한 자의 복", "마태복음 5:5"),
		},
	})

	// no title mentioned: the evidence set is surfaced as available references
	assert.Len(t, answer.References, 2)
}

func TestComposeScriptureRefsEvidenceFirstDeduped(t *testing.T) {
	provider := &stubProvider{
		response: "요한복음 3:16과 마태복음 5:3을 함께 보면 좋습니다.",
	}
	c := NewComposer(provider, "test-model", zap.NewNop())

	answer := c.Compose(context.Background(), Input{
		UserInput:   "말씀 추천해주세요",
		ProfileMode: state.ProfileResearch,
		Category:    state.CategoryBiblicalInterpretation,
		Snippets: []state.SermonCandidate{
			snippet("s1", "심령이 가난한 자", "마태복음 5:3"),
		},
	})

	require.GreaterOrEqual(t, len(answer.ScriptureRefs), 2)
	assert.Equal(t, "마태복음 5:3", answer.ScriptureRefs[0], "evidence reference comes first")
	assert.Contains(t, answer.ScriptureRefs, "요한복음 3:16")
	count := 0
	for _, ref := range answer.ScriptureRefs {
		if ref == "마태복음 5:3" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestComposeEmptyEvidenceForbidsProvenance(t *testing.T) {
	provider := &stubProvider{
		response: "관련된 설교 기록은 찾지 못했지만, 일반적으로 이 본문은 다음과 같이 해석됩니다.",
	}
	c := NewComposer(provider, "test-model", zap.NewNop())

	answer := c.Compose(context.Background(), Input{
		UserInput:     "양자역학에 대한 설교가 있나요?",
		ProfileMode:   state.ProfileResearch,
		Category:      state.CategorySermonSearch,
		Snippets:      nil,
		EvidenceEmpty: true,
	})

	assert.Empty(t, answer.References)
	assert.True(t, strings.Contains(provider.lastPrompt, "단정하지"),
		"prompt must tell the model not to claim a sermon exists")
}

func TestComposeProviderFailureYieldsApology(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	c := NewComposer(provider, "test-model", zap.NewNop())

	answer := c.Compose(context.Background(), Input{
		UserInput:   "고난에 대해 알려주세요",
		ProfileMode: state.ProfileCounseling,
		Category:    state.CategoryCounseling,
	})

	assert.Equal(t, apologyText, answer.Text)
	assert.Empty(t, answer.References)
	assert.Empty(t, answer.ScriptureRefs)
	assert.Equal(t, state.CategoryCounseling, answer.Category)
}

func TestComposeProfileConditioning(t *testing.T) {
	modes := []state.ProfileMode{state.ProfileResearch, state.ProfileCounseling, state.ProfileEducation}
	seen := make(map[string]state.ProfileMode, len(modes))
	for _, mode := range modes {
		prompt, ok := profilePrompts[mode]
		require.True(t, ok, "missing profile prompt for %s", mode)
		if prev, dup := seen[prompt]; dup {
			t.Errorf("modes %s and %s share a system prompt", prev, mode)
		}
		seen[prompt] = mode
	}
}
