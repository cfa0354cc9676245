package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/llm"
	"sermon-agent-be/pkg/scripture"
)

const (
	answerTemperature = 0.7
	maxRetries        = 2
	maxHistory        = 6
)

const apologyText = "죄송합니다. 지금은 답변을 생성할 수 없습니다. 잠시 후 다시 시도해주세요."

// profilePrompts condition the answer style per mode. Retrieval is untouched
// by the mode; only composition changes.
var profilePrompts = map[state.ProfileMode]string{
	state.ProfileResearch: `당신은 설교 연구를 지원하는 학술적 AI 어시스턴트입니다.

## 역할
- 깊이 있는 본문 해석과 신학적 분석 제공
- 설교 구조와 논리적 흐름 제안
- 학술적 참고 자료와 배경 지식 제공

## 답변 스타일
- 정확하고 깊이 있는 설명
- 신학적 용어 사용 가능
- 구조화된 논리적 흐름`,

	state.ProfileCounseling: `당신은 목회 상담을 지원하는 실용적 AI 어시스턴트입니다.

## 역할
- 실생활 적용점과 구체적 예시 제공
- 성도 상담에 도움이 되는 실용적 조언
- 공동체 문제 해결 방안 제시

## 답변 스타일
- 실용적이고 구체적인 예시
- 공감과 이해를 바탕으로 한 조언
- 따뜻하고 친근한 톤`,

	state.ProfileEducation: `당신은 설교 교육을 지원하는 교육적 AI 어시스턴트입니다.

## 역할
- 이해하기 쉬운 설명과 비유 제공
- 단계별 학습 구조 제시
- 교육적 질문과 토론 주제 제안

## 답변 스타일
- 명확하고 이해하기 쉬운 설명
- 비유와 예시 활용
- 교육적 질문 포함`,
}

var categoryHints = map[state.Category]string{
	state.CategorySermonPrep:             "위 질문에 대해 설교 준비에 도움이 되는 답변을 제공해주세요. 참고 설교가 있다면 그것을 바탕으로 과거 설교와의 연결점을 제시해주세요.",
	state.CategoryCounseling:             "위 질문에 대해 목회 상담에 도움이 되는 실용적이고 공감적인 답변을 제공해주세요.",
	state.CategoryBiblicalInterpretation: "위 질문에 대해 성경 구절 해석과 신학적 배경을 포함한 답변을 제공해주세요.",
}

// Input carries everything a single composition needs.
type Input struct {
	UserInput   string
	ProfileMode state.ProfileMode
	Category    state.Category
	History     []state.Message
	Snippets    []state.SermonCandidate
	// EvidenceEmpty distinguishes "retrieval found nothing usable" from
	// "retrieval was skipped"; both forbid sermon-specific provenance claims.
	EvidenceEmpty bool
}

// Composer synthesizes the final answer from the question, history, and the
// evidence set. It owns citation selection and scripture-reference extraction;
// the model call only produces the text.
type Composer struct {
	provider llm.LLMProvider
	model    string
	logger   *zap.Logger
}

func NewComposer(provider llm.LLMProvider, model string, logger *zap.Logger) *Composer {
	return &Composer{
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Compose always returns a well-formed Answer. Provider failures, after
// bounded retries, become a user-visible apology with empty references rather
// than an error.
func (c *Composer) Compose(ctx context.Context, in Input) state.Answer {
	systemPrompt, ok := profilePrompts[in.ProfileMode]
	if !ok {
		systemPrompt = profilePrompts[state.ProfileResearch]
	}

	messages := make([]llm.Message, 0, len(in.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	history := in.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, msg := range history {
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: c.buildUserMessage(in)})

	var text string
	operation := func() error {
		var err error
		text, err = c.provider.Chat(ctx, messages,
			llm.WithModel(c.model),
			llm.WithTemperature(answerTemperature),
		)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("answer generation failed", zap.Error(err))
		return state.Answer{
			Text:          apologyText,
			References:    []state.Reference{},
			ScriptureRefs: []string{},
			Category:      in.Category,
			ProfileMode:   in.ProfileMode,
		}
	}

	return state.Answer{
		Text:          text,
		References:    selectReferences(text, in.Snippets),
		ScriptureRefs: extractScriptureRefs(in.Snippets, text),
		Category:      in.Category,
		ProfileMode:   in.ProfileMode,
	}
}

func (c *Composer) buildUserMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "질문: %s\n", in.UserInput)

	if len(in.Snippets) > 0 {
		b.WriteString("\n")
		b.WriteString(formatSermonContext(in.Snippets))
	} else {
		b.WriteString("\n(참고할 설교 아카이브 자료가 없습니다. 특정 설교가 존재한다고 단정하지 말고, 일반적인 지식으로만 답변하세요.)\n")
	}

	if hint, ok := categoryHints[in.Category]; ok {
		b.WriteString("\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	return b.String()
}

// formatSermonContext renders the evidence snippets as a markdown block the
// model can cite from.
func formatSermonContext(snippets []state.SermonCandidate) string {
	var b strings.Builder
	b.WriteString("## 참고 설교 아카이브\n\n")
	for i, s := range snippets {
		fmt.Fprintf(&b, "### %d. %s\n", i+1, orDefault(s.Title, "제목 없음"))
		if !s.SermonDate.IsZero() {
			fmt.Fprintf(&b, "**날짜**: %s\n", formatDate(s.SermonDate))
		}
		if s.Scripture != "" {
			fmt.Fprintf(&b, "**성경 구절**: %s\n", s.Scripture)
		}
		if s.Summary != "" {
			fmt.Fprintf(&b, "**요약**: %s\n", s.Summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// selectReferences cites the snippets whose titles the answer actually
// mentions. When the model used the evidence without naming any title, the
// full evidence set is returned as available references instead; retrieved
// evidence is never silently dropped, and no evidence means no references.
func selectReferences(answerText string, snippets []state.SermonCandidate) []state.Reference {
	if len(snippets) == 0 {
		return []state.Reference{}
	}

	cited := make([]state.Reference, 0, len(snippets))
	for _, s := range snippets {
		if s.Title != "" && strings.Contains(answerText, s.Title) {
			cited = append(cited, toReference(s))
		}
	}
	if len(cited) > 0 {
		return cited
	}

	all := make([]state.Reference, 0, len(snippets))
	for _, s := range snippets {
		all = append(all, toReference(s))
	}
	return all
}

func toReference(s state.SermonCandidate) state.Reference {
	ref := state.Reference{
		SermonID:     s.SermonID,
		Title:        s.Title,
		Scripture:    s.Scripture,
		ThumbnailURL: s.ThumbnailURL,
	}
	if !s.SermonDate.IsZero() {
		ref.Date = formatDate(s.SermonDate)
	}
	return ref
}

// extractScriptureRefs runs the parser over the evidence first, then the
// synthesized text, deduplicating while preserving first appearance.
func extractScriptureRefs(snippets []state.SermonCandidate, answerText string) []string {
	var b strings.Builder
	for _, s := range snippets {
		b.WriteString(s.Scripture)
		b.WriteString("\n")
	}
	b.WriteString(answerText)
	return scripture.ExtractNormalized(b.String())
}

func formatDate(t time.Time) string {
	return t.Format("2006년 01월 02일")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
