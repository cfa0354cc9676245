package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent"
	"sermon-agent-be/pkg/agent/composer"
	"sermon-agent-be/pkg/agent/state"
)

type stubRouter struct {
	decision state.RouterDecision
	err      error
}

func (r *stubRouter) Classify(ctx context.Context, userInput string, history []state.Message, mode state.ProfileMode) (state.RouterDecision, error) {
	return r.decision, r.err
}

type stubRetriever struct {
	retrieval state.Retrieval
	snippets  []state.SermonCandidate
	calls     int
}

func (r *stubRetriever) Retrieve(ctx context.Context, userInput string, mode state.ProfileMode) (state.Retrieval, []state.SermonCandidate, error) {
	r.calls++
	return r.retrieval, r.snippets, nil
}

type stubComposer struct {
	lastInput composer.Input
}

func (c *stubComposer) Compose(ctx context.Context, in composer.Input) state.Answer {
	c.lastInput = in

	text := "일반적인 답변입니다."
	refs := []state.Reference{}
	var scriptureRefs []string
	if len(in.Snippets) > 0 {
		titles := make([]string, 0, len(in.Snippets))
		for _, s := range in.Snippets {
			titles = append(titles, "'"+s.Title+"'")
			refs = append(refs, state.Reference{SermonID: s.SermonID, Title: s.Title, Scripture: s.Scripture})
		}
		text = strings.Join(titles, ", ") + " 설교를 참고하세요."
		for _, s := range in.Snippets {
			if s.Scripture != "" {
				scriptureRefs = append(scriptureRefs, s.Scripture)
			}
		}
	}
	if in.ProfileMode == state.ProfileCounseling {
		text = "따뜻한 마음으로 권해드립니다. " + text
	}
	return state.Answer{
		Text:          text,
		References:    refs,
		ScriptureRefs: scriptureRefs,
		Category:      in.Category,
		ProfileMode:   in.ProfileMode,
	}
}

func newTestPipeline(r *stubRouter, ret *stubRetriever, c *stubComposer) *Pipeline {
	return NewPipeline(r, ret, c, state.ProfileResearch, zap.NewNop())
}

func baseConversation(input string) state.Conversation {
	return state.Conversation{
		SessionID:   "sess-1",
		UserID:      "user-1",
		TurnCount:   2,
		ProfileMode: state.ProfileResearch,
		UserInput:   input,
		StartedAt:   time.Now().Add(-time.Hour),
	}
}

func TestRunTurnIncrementsTurnCountAndSetsAnswer(t *testing.T) {
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategorySmallTalk, UseRAG: false}},
		&stubRetriever{},
		&stubComposer{},
	)

	out, err := p.RunTurn(context.Background(), baseConversation("안녕하세요"))
	require.NoError(t, err)
	assert.Equal(t, state.StageAnswered, out.Stage)
	assert.Equal(t, 3, out.TurnCount)
	assert.NotEmpty(t, out.Answer.Text)
	assert.Len(t, out.Messages, 2)
	assert.Equal(t, "user", out.Messages[0].Role)
	assert.Equal(t, "assistant", out.Messages[1].Role)
}

func TestRunTurnSkipsRetrievalWhenRouterSaysNo(t *testing.T) {
	retriever := &stubRetriever{}
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategorySmallTalk, UseRAG: false}},
		retriever,
		&stubComposer{},
	)

	out, err := p.RunTurn(context.Background(), baseConversation("안녕하세요"))
	require.NoError(t, err)
	assert.Zero(t, retriever.calls)
	assert.Empty(t, out.Retrieval.Raw)
	assert.Empty(t, out.RAGSnippets)
}

func TestRunTurnKoreanScriptureScenario(t *testing.T) {
	sermonDate, _ := time.Parse("2006-01-02", "2024-03-10")
	retriever := &stubRetriever{
		retrieval: state.Retrieval{SearchQuery: "마태복음 5장 3절", Empty: false},
		snippets: []state.SermonCandidate{{
			SermonID:   "s1",
			Title:      "심령이 가난한 자",
			Scripture:  "마태복음 5:3",
			SermonDate: sermonDate,
			Score:      0.81,
		}},
	}
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategorySermonSearch, UseRAG: true}},
		retriever,
		&stubComposer{},
	)

	conv := baseConversation("마태복음 5장 3절로 설교한 적이 있나요?")
	out, err := p.RunTurn(context.Background(), conv)
	require.NoError(t, err)

	assert.True(t, out.Router.UseRAG)
	require.Len(t, out.RAGSnippets, 1)
	assert.Equal(t, "심령이 가난한 자", out.RAGSnippets[0].Title)
	assert.Contains(t, out.Answer.ScriptureRefs, "마태복음 5:3")
	require.Len(t, out.Answer.References, 1)
}

func TestRunTurnEmptyEvidenceFlagReachesComposer(t *testing.T) {
	comp := &stubComposer{}
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategorySermonSearch, UseRAG: true}},
		&stubRetriever{retrieval: state.Retrieval{Empty: true}},
		comp,
	)

	out, err := p.RunTurn(context.Background(), baseConversation("양자역학 설교 있나요?"))
	require.NoError(t, err)
	assert.True(t, comp.lastInput.EvidenceEmpty)
	assert.Empty(t, out.Answer.References)
}

func TestRunTurnProfileModeChangesTextNotSnippets(t *testing.T) {
	snippets := []state.SermonCandidate{{SermonID: "s1", Title: "고난의 의미", Score: 0.7}}
	build := func() *Pipeline {
		return newTestPipeline(
			&stubRouter{decision: state.RouterDecision{Category: state.CategoryCounseling, UseRAG: true}},
			&stubRetriever{retrieval: state.Retrieval{Raw: snippets}, snippets: snippets},
			&stubComposer{},
		)
	}

	conv := baseConversation("고난을 어떻게 견디나요?")
	research, err := build().RunTurn(context.Background(), conv)
	require.NoError(t, err)

	conv.ProfileMode = state.ProfileCounseling
	counseling, err := build().RunTurn(context.Background(), conv)
	require.NoError(t, err)

	assert.Equal(t, research.RAGSnippets, counseling.RAGSnippets)
	assert.NotEqual(t, research.Answer.Text, counseling.Answer.Text)
}

func TestRunTurnRejectsEmptyInput(t *testing.T) {
	p := newTestPipeline(&stubRouter{}, &stubRetriever{}, &stubComposer{})

	_, err := p.RunTurn(context.Background(), baseConversation("   "))
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrInvariantViolation)
}

func TestRunTurnDefaultsProfileMode(t *testing.T) {
	comp := &stubComposer{}
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategoryOther, UseRAG: false}},
		&stubRetriever{},
		comp,
	)

	conv := baseConversation("무엇을 할 수 있나요?")
	conv.ProfileMode = ""
	out, err := p.RunTurn(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, state.ProfileResearch, out.ProfileMode)
}

func TestRunTurnDoesNotMutateInput(t *testing.T) {
	p := newTestPipeline(
		&stubRouter{decision: state.RouterDecision{Category: state.CategoryOther, UseRAG: false}},
		&stubRetriever{},
		&stubComposer{},
	)

	in := baseConversation("안녕하세요")
	out, err := p.RunTurn(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, in.TurnCount)
	assert.Empty(t, in.Answer.Text)
	assert.Equal(t, 3, out.TurnCount)
}
