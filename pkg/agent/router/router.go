package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent"
	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/llm"
)

const (
	routerTemperature = 0.1
	maxRetries        = 2
)

const systemPrompt = `너는 교회 설교 지원 AI 에이전트의 '라우터' 역할을 한다.
사용자(목사님/성도님)의 한 발화를 보고 아래 항목을 판단해 JSON으로만 답하라.

1) category:
   - SERMON_PREP    : 설교 준비, 본문 해석, 설교 구조, 적용점, 나눔 질문 생성 등
   - COUNSELING     : 성도 상담, 목회 상담, 실생활 적용, 교회 공동체 문제 등
   - SCRIPTURE_QA   : 성경 구절 해석, 신학적 질문, 성경 배경 지식 등
   - SERMON_SEARCH  : 과거 설교 검색, 특정 주제/본문의 설교 찾기 등
   - SMALL_TALK     : 인사, 감사, 테스트, 잡담 등
   - OTHER          : 위에 해당하지 않는 경우

2) use_rag (bool):
   - 과거 설교 아카이브 검색이 필요한 질문이면 true
   - 예시 (true):
     * '하나님의 사랑에 대한 설교를 찾아줘'
     * '고난에 대해 어떻게 말씀하셨나요?'
     * '마태복음 5장으로 설교한 적 있나요?'
     * 설교/말씀/본문/주제 관련 질문 대부분
   - 예시 (false):
     * '안녕하세요' (인사)
     * '무엇을 할 수 있나요?' (메타 질문)

3) reason: 판단 이유를 간단히 한국어로 설명

반드시 아래 형태의 JSON만 출력:
{
  "category": "SERMON_PREP" | "COUNSELING" | "SCRIPTURE_QA" | "SERMON_SEARCH" | "SMALL_TALK" | "OTHER",
  "use_rag": true | false,
  "reason": "판단 이유"
}`

// decisionPayload is the structured schema the classifier model must return.
type decisionPayload struct {
	Category string `json:"category"`
	UseRAG   bool   `json:"use_rag"`
	Reason   string `json:"reason"`
}

// Router classifies a user turn and decides whether the sermon archive needs
// to be searched. Classification is delegated to a language model; this type
// owns prompt construction, response parsing, and the fail-closed default.
type Router struct {
	provider llm.LLMProvider
	model    string
	logger   *zap.Logger
}

func NewRouter(provider llm.LLMProvider, model string, logger *zap.Logger) *Router {
	return &Router{
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// fallbackDecision is what every failure path resolves to: no retrieval,
// category other. Failing closed keeps a broken classifier from triggering
// expensive searches on every turn.
func fallbackDecision(reason string) state.RouterDecision {
	return state.RouterDecision{
		Category: state.CategoryOther,
		UseRAG:   false,
		Reason:   reason,
	}
}

// Classify routes a single turn. On provider or parse failure it returns the
// fail-closed decision together with the error so the caller can log it; the
// decision itself is always usable.
func (r *Router) Classify(ctx context.Context, userInput string, history []state.Message, mode state.ProfileMode) (state.RouterDecision, error) {
	text := strings.TrimSpace(userInput)
	if text == "" {
		return fallbackDecision("빈 입력"), nil
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: r.buildUserPrompt(text, history, mode)},
	}

	var raw string
	operation := func() error {
		var err error
		raw, err = r.provider.Chat(ctx, messages,
			llm.WithModel(r.model),
			llm.WithTemperature(routerTemperature),
			llm.WithJSONOutput(),
		)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		r.logger.Warn("router call failed, failing closed",
			zap.Error(err))
		return fallbackDecision("라우터 호출 실패"), &agent.TransientError{Op: "router.classify", Err: err}
	}

	decision, err := parseDecision(raw)
	if err != nil {
		r.logger.Warn("router response unparseable, failing closed",
			zap.String("raw", truncate(raw, 200)),
			zap.Error(err))
		return fallbackDecision("라우터 응답 파싱 실패"), err
	}

	r.logger.Debug("router decision",
		zap.String("category", string(decision.Category)),
		zap.Bool("use_rag", decision.UseRAG))
	return decision, nil
}

func (r *Router) buildUserPrompt(text string, history []state.Message, mode state.ProfileMode) string {
	var b strings.Builder

	modeContext := map[state.ProfileMode]string{
		state.ProfileResearch:   "연구 모드: 학술적/깊이 있는 답변",
		state.ProfileCounseling: "상담 모드: 실생활 적용/목회 상담",
		state.ProfileEducation:  "교육 모드: 교육적/쉬운 설명",
	}[mode]
	if modeContext != "" {
		fmt.Fprintf(&b, "현재 모드: %s\n", modeContext)
	}

	if len(history) > 0 {
		b.WriteString("최근 대화:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "- %s: %s\n", msg.Role, truncate(msg.Content, 120))
		}
	}

	fmt.Fprintf(&b, "사용자 질문: %s\n", text)
	return b.String()
}

func parseDecision(raw string) (state.RouterDecision, error) {
	jsonContent := extractJSON(raw)
	if jsonContent == "" {
		return state.RouterDecision{}, &agent.MalformedResponseError{
			Op:  "router.parse",
			Raw: raw,
			Err: fmt.Errorf("no JSON object in response"),
		}
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return state.RouterDecision{}, &agent.MalformedResponseError{
			Op:  "router.parse",
			Raw: raw,
			Err: err,
		}
	}

	return state.RouterDecision{
		Category: state.CategoryFromToken(payload.Category),
		UseRAG:   payload.UseRAG,
		Reason:   payload.Reason,
	}, nil
}

// extractJSON pulls the outermost JSON object out of a response that may be
// wrapped in prose or a markdown fence.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return response[start : end+1]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
