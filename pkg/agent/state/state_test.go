package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromToken(t *testing.T) {
	tests := []struct {
		token string
		want  Category
	}{
		{"SERMON_PREP", CategorySermonPrep},
		{"COUNSELING", CategoryCounseling},
		{"SCRIPTURE_QA", CategoryBiblicalInterpretation},
		{"SERMON_SEARCH", CategorySermonSearch},
		{"SMALL_TALK", CategorySmallTalk},
		{"OTHER", CategoryOther},
		{" sermon_search ", CategorySermonSearch},
		{"UNKNOWN_THING", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFromToken(tt.token), "token %q", tt.token)
	}
}

func TestWithRoutedClearsPreviousTurn(t *testing.T) {
	conv := Conversation{
		RAGSnippets: []SermonCandidate{{SermonID: "stale"}},
		Retrieval:   Retrieval{Raw: []SermonCandidate{{SermonID: "stale"}}},
		Answer:      Answer{Text: "지난 턴 답변"},
	}

	routed := conv.WithRouted(RouterDecision{Category: CategorySermonSearch, UseRAG: true})
	assert.Equal(t, StageRouted, routed.Stage)
	assert.Empty(t, routed.RAGSnippets)
	assert.Empty(t, routed.Retrieval.Raw)
	assert.Empty(t, routed.Answer.Text)
}

func TestWithAnsweredIsAtomic(t *testing.T) {
	now := time.Now()
	conv := Conversation{
		TurnCount: 4,
		UserInput: "마태복음 5장 3절로 설교한 적이 있나요?",
		Messages:  []Message{{Role: "user", Content: "이전 질문"}},
	}

	answered := conv.WithAnswered(Answer{Text: "네, 있습니다."}, now)

	assert.Equal(t, StageAnswered, answered.Stage)
	assert.Equal(t, 5, answered.TurnCount)
	assert.Equal(t, now, answered.LastActivityAt)
	assert.Len(t, answered.Messages, 3)
	assert.Equal(t, "assistant", answered.Messages[2].Role)

	// the input value is untouched
	assert.Equal(t, 4, conv.TurnCount)
	assert.Len(t, conv.Messages, 1)
}

func TestRecentHistory(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{Content: "1"}, {Content: "2"}, {Content: "3"}, {Content: "4"},
	}}

	assert.Len(t, conv.RecentHistory(2), 2)
	assert.Equal(t, "3", conv.RecentHistory(2)[0].Content)
	assert.Len(t, conv.RecentHistory(10), 4)
	assert.Nil(t, conv.RecentHistory(0))
}
