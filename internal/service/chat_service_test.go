package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sermon-agent-be/internal/constant"
	"sermon-agent-be/internal/dto"
	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/repository/contract"
	"sermon-agent-be/internal/repository/memory"
	"sermon-agent-be/internal/repository/specification"
	"sermon-agent-be/internal/repository/unitofwork"
	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/events"
)

// --- in-memory unit of work ---

type fakeStore struct {
	sessions  map[uuid.UUID]*entity.ChatSession
	messages  []*entity.ChatMessage
	citations []*entity.ChatCitation
	sermons   map[uuid.UUID]*entity.Sermon
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*entity.ChatSession),
		sermons:  make(map[uuid.UUID]*entity.Sermon),
	}
}

type fakeUowFactory struct{ store *fakeStore }

func (f *fakeUowFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct{ store *fakeStore }

func (u *fakeUow) Begin(_ context.Context) error { return nil }
func (u *fakeUow) Commit() error                 { return nil }
func (u *fakeUow) Rollback() error               { return nil }

func (u *fakeUow) SermonRepository() contract.SermonRepository {
	return contractSermonRepo{store: u.store}
}

// The fake only implements the methods the chat service touches; the rest
// panic so an unexpected call fails loudly.

type contractSermonRepo struct{ store *fakeStore }

func (r contractSermonRepo) Create(_ context.Context, s *entity.Sermon) error {
	r.store.sermons[s.Id] = s
	return nil
}
func (r contractSermonRepo) Update(context.Context, *entity.Sermon) error { panic("not implemented") }
func (r contractSermonRepo) Delete(context.Context, uuid.UUID) error      { panic("not implemented") }
func (r contractSermonRepo) FindOne(context.Context, ...specification.Specification) (*entity.Sermon, error) {
	panic("not implemented")
}
func (r contractSermonRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Sermon, error) {
	panic("not implemented")
}
func (r contractSermonRepo) FindByIds(_ context.Context, ids []uuid.UUID) ([]*entity.Sermon, error) {
	out := make([]*entity.Sermon, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.store.sermons[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r contractSermonRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	panic("not implemented")
}

func (u *fakeUow) SermonEmbeddingRepository() contract.SermonEmbeddingRepository {
	return contractEmbeddingRepo{}
}

type contractEmbeddingRepo struct{}

func (contractEmbeddingRepo) Create(context.Context, *entity.SermonEmbedding) error {
	panic("not implemented")
}
func (contractEmbeddingRepo) CreateBulk(context.Context, []*entity.SermonEmbedding) error {
	panic("not implemented")
}
func (contractEmbeddingRepo) DeleteBySermonId(context.Context, uuid.UUID) error {
	panic("not implemented")
}
func (contractEmbeddingRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.SermonEmbedding, error) {
	panic("not implemented")
}
func (contractEmbeddingRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	panic("not implemented")
}
func (contractEmbeddingRepo) SearchSimilarWithScore(context.Context, []float32, int) ([]*contract.ScoredSermonHit, error) {
	panic("not implemented")
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return contractSessionRepo{store: u.store}
}

type contractSessionRepo struct{ store *fakeStore }

func (r contractSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.store.sessions[s.Id] = s
	return nil
}
func (r contractSessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	r.store.sessions[s.Id] = s
	return nil
}
func (r contractSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.sessions, id)
	return nil
}
func (r contractSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	// The chat service always filters by id + user id.
	for _, s := range r.store.sessions {
		return s, nil
	}
	return nil, nil
}
func (r contractSessionRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0, len(r.store.sessions))
	for _, s := range r.store.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return contractMessageRepo{store: u.store}
}

type contractMessageRepo struct{ store *fakeStore }

func (r contractMessageRepo) Create(_ context.Context, m *entity.ChatMessage) error {
	r.store.messages = append(r.store.messages, m)
	return nil
}
func (r contractMessageRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatMessage, error) {
	return r.store.messages, nil
}
func (r contractMessageRepo) DeleteBySessionId(_ context.Context, sessionId uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (u *fakeUow) ChatCitationRepository() contract.ChatCitationRepository {
	return contractCitationRepo{store: u.store}
}

type contractCitationRepo struct{ store *fakeStore }

func (r contractCitationRepo) CreateBulk(_ context.Context, cs []*entity.ChatCitation) error {
	r.store.citations = append(r.store.citations, cs...)
	return nil
}
func (r contractCitationRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatCitation, error) {
	return r.store.citations, nil
}

// --- stubs ---

type stubTurnRunner struct {
	answer  state.Answer
	lastIn  state.Conversation
	failErr error
}

func (s *stubTurnRunner) RunTurn(_ context.Context, conv state.Conversation) (state.Conversation, error) {
	s.lastIn = conv
	if s.failErr != nil {
		return conv, s.failErr
	}
	conv = conv.WithRouted(state.RouterDecision{Category: s.answer.Category, UseRAG: true})
	return conv.WithAnswered(s.answer, time.Now()), nil
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// --- tests ---

func newTestService(runner TurnRunner, store *fakeStore) (IChatService, *memory.ConversationRepository, *recordingPublisher) {
	convRepo := memory.NewConversationRepository()
	publisher := &recordingPublisher{}
	svc := NewChatService(&fakeUowFactory{store: store}, runner, convRepo, publisher, state.ProfileResearch, nopLogger{})
	return svc, convRepo, publisher
}

func TestSendChatPersistsTurnAndCitations(t *testing.T) {
	store := newFakeStore()
	userId := uuid.New()
	sermonId := uuid.New()

	runner := &stubTurnRunner{answer: state.Answer{
		Text:     "마태복음 5장 3절을 본문으로 한 설교가 있습니다.",
		Category: state.CategoryBiblicalInterpretation,
		References: []state.Reference{
			{SermonID: sermonId.String(), Title: "심령이 가난한 자의 복", Date: "2024년 03월 10일", Scripture: "마태복음 5:3", ThumbnailURL: "https://cdn.example.com/thumbs/poor-in-spirit.jpg"},
		},
		ScriptureRefs: []string{"마태복음 5:3"},
	}}
	svc, convRepo, publisher := newTestService(runner, store)

	created, err := svc.CreateSession(context.Background(), userId, &dto.CreateSessionRequest{})
	require.NoError(t, err)

	res, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: created.Id,
		Message:       "마태복음 5장 3절로 설교한 적이 있나요?",
	})
	require.NoError(t, err)

	assert.Equal(t, "biblical-interpretation", res.Category)
	assert.True(t, res.UseRag)
	assert.Contains(t, res.ScriptureRefs, "마태복음 5:3")
	require.Len(t, res.References, 1)
	assert.Equal(t, sermonId, res.References[0].SermonId)
	assert.Equal(t, "https://cdn.example.com/thumbs/poor-in-spirit.jpg", res.References[0].ThumbnailURL)

	// user + assistant rows persisted
	require.Len(t, store.messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, store.messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, store.messages[1].Role)
	require.Len(t, store.citations, 1)
	assert.Equal(t, sermonId, store.citations[0].SermonId)

	// session title set from the first question, turn counter advanced
	sess := store.sessions[created.Id]
	assert.Equal(t, 1, sess.TurnCount)
	assert.Equal(t, "마태복음 5장 3절로 설교한 적이 있나요?", sess.Title)

	// live conversation state kept for the next turn
	conv, found := convRepo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, 1, conv.TurnCount)
	assert.Len(t, conv.Messages, 2)

	// SESSION_CREATED then TURN_ANSWERED
	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.TypeTurnAnswered, publisher.published[1].EventType())
}

func TestSendChatRebuildsConversationFromHistory(t *testing.T) {
	store := newFakeStore()
	userId := uuid.New()

	runner := &stubTurnRunner{answer: state.Answer{Text: "이어서 답변드립니다.", Category: state.CategoryOther}}
	svc, convRepo, _ := newTestService(runner, store)

	created, err := svc.CreateSession(context.Background(), userId, nil)
	require.NoError(t, err)

	// durable log from an earlier turn, in-memory entry expired
	store.sessions[created.Id].TurnCount = 1
	store.messages = append(store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: created.Id, Role: "user", Content: "지난 주 설교 요약해 주세요", CreatedAt: time.Now().Add(-time.Hour)},
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: created.Id, Role: "assistant", Content: "지난 주 설교는 시편 23편이었습니다.", CreatedAt: time.Now().Add(-time.Hour)},
	)
	convRepo.Delete(created.Id.String())

	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: created.Id,
		Message:       "그 본문을 더 설명해 주세요",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, runner.lastIn.TurnCount)
	assert.Len(t, runner.lastIn.Messages, 2)
	assert.Equal(t, state.ProfileResearch, runner.lastIn.ProfileMode)
}

func TestSendChatRejectsUnknownProfileMode(t *testing.T) {
	store := newFakeStore()
	userId := uuid.New()
	svc, _, _ := newTestService(&stubTurnRunner{answer: state.Answer{Text: "ok"}}, store)

	created, err := svc.CreateSession(context.Background(), userId, nil)
	require.NoError(t, err)

	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: created.Id,
		Message:       "안녕하세요",
		ProfileMode:   "prophetic",
	})
	assert.Error(t, err)
}

func TestDeleteSessionRemovesMessagesAndLiveState(t *testing.T) {
	store := newFakeStore()
	userId := uuid.New()
	svc, convRepo, publisher := newTestService(&stubTurnRunner{answer: state.Answer{Text: "ok", Category: state.CategorySmallTalk}}, store)

	created, err := svc.CreateSession(context.Background(), userId, nil)
	require.NoError(t, err)
	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{ChatSessionId: created.Id, Message: "안녕하세요"})
	require.NoError(t, err)

	err = svc.DeleteSession(context.Background(), userId, &dto.DeleteSessionRequest{ChatSessionId: created.Id})
	require.NoError(t, err)

	assert.Empty(t, store.sessions)
	assert.Empty(t, store.messages)
	_, found := convRepo.Get(created.Id.String())
	assert.False(t, found)
	assert.Equal(t, events.TypeSessionDeleted, publisher.published[len(publisher.published)-1].EventType())
}
