package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sermon-agent-be/pkg/agent"
	"sermon-agent-be/pkg/agent/composer"
	"sermon-agent-be/pkg/agent/state"
)

// QueryRouter decides the category and whether retrieval runs.
type QueryRouter interface {
	Classify(ctx context.Context, userInput string, history []state.Message, mode state.ProfileMode) (state.RouterDecision, error)
}

// SermonRetriever produces the turn's evidence set.
type SermonRetriever interface {
	Retrieve(ctx context.Context, userInput string, mode state.ProfileMode) (state.Retrieval, []state.SermonCandidate, error)
}

// AnswerComposer turns the question plus evidence into the final answer.
type AnswerComposer interface {
	Compose(ctx context.Context, in composer.Input) state.Answer
}

// Pipeline sequences one turn through Routed, optionally Retrieved, and
// Answered. No cycles, each applicable stage runs exactly once, and retries
// live inside the stages, never here.
type Pipeline struct {
	router      QueryRouter
	retriever   SermonRetriever
	composer    AnswerComposer
	defaultMode state.ProfileMode
	logger      *zap.Logger
	now         func() time.Time
}

func NewPipeline(router QueryRouter, retriever SermonRetriever, answerComposer AnswerComposer, defaultMode state.ProfileMode, logger *zap.Logger) *Pipeline {
	if !state.ValidProfileMode(defaultMode) {
		defaultMode = state.ProfileResearch
	}
	return &Pipeline{
		router:      router,
		retriever:   retriever,
		composer:    answerComposer,
		defaultMode: defaultMode,
		logger:      logger,
		now:         time.Now,
	}
}

// RunTurn executes one turn over a copy of the conversation and returns the
// updated value. The input is never mutated, so an abandoned turn can never
// expose a half-written answer. The only errors surfaced are invariant
// violations in the input; provider failures end in a well-formed fallback
// answer instead.
func (p *Pipeline) RunTurn(ctx context.Context, conv state.Conversation) (state.Conversation, error) {
	if strings.TrimSpace(conv.UserInput) == "" {
		return conv, fmt.Errorf("%w: user input is required", agent.ErrInvariantViolation)
	}
	if conv.ProfileMode == "" {
		conv.ProfileMode = p.defaultMode
	}
	if !state.ValidProfileMode(conv.ProfileMode) {
		return conv, fmt.Errorf("%w: unknown profile mode %q", agent.ErrInvariantViolation, conv.ProfileMode)
	}

	history := conv.RecentHistory(6)

	decision, err := p.router.Classify(ctx, conv.UserInput, history, conv.ProfileMode)
	if err != nil {
		p.logger.Warn("router failed closed",
			zap.String("session_id", conv.SessionID),
			zap.Error(err))
	}
	conv = conv.WithRouted(decision)

	evidenceEmpty := true
	if decision.UseRAG {
		retrieval, snippets, err := p.retriever.Retrieve(ctx, conv.UserInput, conv.ProfileMode)
		if err != nil {
			p.logger.Warn("retrieval failed, continuing with empty evidence",
				zap.String("session_id", conv.SessionID),
				zap.Error(err))
		}
		conv = conv.WithRetrieved(retrieval, snippets)
		evidenceEmpty = retrieval.Empty
	}

	answer := p.composer.Compose(ctx, composer.Input{
		UserInput:     conv.UserInput,
		ProfileMode:   conv.ProfileMode,
		Category:      decision.Category,
		History:       history,
		Snippets:      conv.RAGSnippets,
		EvidenceEmpty: evidenceEmpty,
	})
	conv = conv.WithAnswered(answer, p.now())

	p.logger.Info("turn answered",
		zap.String("session_id", conv.SessionID),
		zap.String("category", string(decision.Category)),
		zap.Bool("use_rag", decision.UseRAG),
		zap.Int("snippets", len(conv.RAGSnippets)),
		zap.Int("turn", conv.TurnCount))
	return conv, nil
}
