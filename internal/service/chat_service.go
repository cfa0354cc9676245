package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sermon-agent-be/internal/constant"
	"sermon-agent-be/internal/dto"
	"sermon-agent-be/internal/entity"
	"sermon-agent-be/internal/pkg/logger"
	"sermon-agent-be/internal/repository/memory"
	"sermon-agent-be/internal/repository/specification"
	"sermon-agent-be/internal/repository/unitofwork"
	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/events"
)

const sessionTitleMaxRunes = 30

// TurnRunner executes one question-answering turn over conversation state.
type TurnRunner interface {
	RunTurn(ctx context.Context, conv state.Conversation) (state.Conversation, error)
}

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	pipeline         TurnRunner
	conversationRepo *memory.ConversationRepository
	publisher        IPublisherService
	defaultMode      state.ProfileMode
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	turnRunner TurnRunner,
	conversationRepo *memory.ConversationRepository,
	publisher IPublisherService,
	defaultMode state.ProfileMode,
	sysLogger logger.ILogger,
) IChatService {
	if !state.ValidProfileMode(defaultMode) {
		defaultMode = state.ProfileResearch
	}
	return &chatService{
		uowFactory:       uowFactory,
		pipeline:         turnRunner,
		conversationRepo: conversationRepo,
		publisher:        publisher,
		defaultMode:      defaultMode,
		logger:           sysLogger,
	}
}

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	mode := cs.defaultMode
	if request != nil && request.ProfileMode != "" {
		mode = state.ProfileMode(request.ProfileMode)
		if !state.ValidProfileMode(mode) {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown profile mode %q", request.ProfileMode))
		}
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       constant.DefaultSessionTitle,
		ProfileMode: string(mode),
		CreatedAt:   now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.conversationRepo.Save(state.Conversation{
		SessionID:   chatSession.Id.String(),
		UserID:      userId.String(),
		ProfileMode: mode,
		StartedAt:   now,
	})

	if err := cs.publisher.Publish(ctx, events.NewSessionCreated(chatSession.Id.String(), userId.String())); err != nil {
		cs.logger.Warn(constant.ModuleChatService, "failed to publish session created event", map[string]interface{}{
			"session_id": chatSession.Id.String(),
			"error":      err.Error(),
		})
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id, ProfileMode: string(mode)}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Column: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:          s.Id,
			Title:       s.Title,
			ProfileMode: s.ProfileMode,
			TurnCount:   s.TurnCount,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return response, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Column: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(messages))
	for i, msg := range messages {
		messageIds[i] = msg.Id
	}

	refsByMsgId, err := cs.loadReferences(ctx, uow, messageIds)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, &dto.GetChatHistoryResponse{
			Id:         msg.Id,
			Role:       msg.Role,
			Content:    msg.Content,
			Category:   msg.Category,
			CreatedAt:  msg.CreatedAt,
			References: refsByMsgId[msg.Id],
		})
	}
	return response, nil
}

func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := cs.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	conv, err := cs.loadConversation(ctx, uow, chatSession)
	if err != nil {
		return nil, err
	}

	conv.UserInput = request.Message
	if request.ProfileMode != "" {
		mode := state.ProfileMode(request.ProfileMode)
		if !state.ValidProfileMode(mode) {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown profile mode %q", request.ProfileMode))
		}
		conv.ProfileMode = mode
	}

	conv, err = cs.pipeline.RunTurn(ctx, conv)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       request.Message,
		CreatedAt:     now,
	}
	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       conv.Answer.Text,
		Category:      string(conv.Answer.Category),
		CreatedAt:     now.Add(1 * time.Millisecond),
	}

	citations := cs.buildCitations(conv, assistantMessage.Id, now)

	chatSession.TurnCount = conv.TurnCount
	chatSession.ProfileMode = string(conv.ProfileMode)
	chatSession.UpdatedAt = &now
	if chatSession.Title == constant.DefaultSessionTitle {
		chatSession.Title = truncateTitle(request.Message)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}
	if len(citations) > 0 {
		if err := uow.ChatCitationRepository().CreateBulk(ctx, citations); err != nil {
			return nil, err
		}
	}
	if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.conversationRepo.Save(conv)

	if err := cs.publisher.Publish(ctx, events.NewTurnAnswered(
		conv.SessionID,
		conv.UserID,
		string(conv.Answer.Category),
		conv.Router.UseRAG,
		len(conv.RAGSnippets),
	)); err != nil {
		cs.logger.Warn(constant.ModuleChatService, "failed to publish turn answered event", map[string]interface{}{
			"session_id": conv.SessionID,
			"error":      err.Error(),
		})
	}

	return &dto.SendChatResponse{
		ChatSessionId: chatSession.Id,
		MessageId:     assistantMessage.Id,
		Answer:        conv.Answer.Text,
		Category:      string(conv.Answer.Category),
		UseRag:        conv.Router.UseRAG,
		References:    toReferenceDTOs(conv.Answer.References),
		ScriptureRefs: conv.Answer.ScriptureRefs,
		TurnCount:     chatSession.TurnCount,
		CreatedAt:     assistantMessage.CreatedAt,
	}, nil
}

func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := cs.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, chatSession.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, chatSession.Id); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.conversationRepo.Delete(chatSession.Id.String())

	if err := cs.publisher.Publish(ctx, events.NewSessionDeleted(chatSession.Id.String(), userId.String())); err != nil {
		cs.logger.Warn(constant.ModuleChatService, "failed to publish session deleted event", map[string]interface{}{
			"session_id": chatSession.Id.String(),
			"error":      err.Error(),
		})
	}

	return nil
}

func (cs *chatService) verifySession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found or access denied")
	}
	return chatSession, nil
}

// loadConversation restores live pipeline state, rebuilding it from the
// durable message log when the in-memory entry has expired.
func (cs *chatService) loadConversation(ctx context.Context, uow unitofwork.UnitOfWork, chatSession *entity.ChatSession) (state.Conversation, error) {
	if conv, found := cs.conversationRepo.Get(chatSession.Id.String()); found {
		return conv, nil
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.OrderBy{Column: "created_at", Desc: false},
	)
	if err != nil {
		return state.Conversation{}, err
	}

	history := make([]state.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, state.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return state.Conversation{
		SessionID:   chatSession.Id.String(),
		UserID:      chatSession.UserId.String(),
		TurnCount:   chatSession.TurnCount,
		StartedAt:   chatSession.CreatedAt,
		Messages:    history,
		ProfileMode: state.ProfileMode(chatSession.ProfileMode),
	}, nil
}

// buildCitations records which cited sermons backed the assistant message,
// carrying the similarity score of the matching snippet.
func (cs *chatService) buildCitations(conv state.Conversation, messageId uuid.UUID, now time.Time) []*entity.ChatCitation {
	scoreBySermon := make(map[string]float64, len(conv.RAGSnippets))
	for _, snippet := range conv.RAGSnippets {
		scoreBySermon[snippet.SermonID] = snippet.Score
	}

	citations := make([]*entity.ChatCitation, 0, len(conv.Answer.References))
	for _, ref := range conv.Answer.References {
		sermonId, err := uuid.Parse(ref.SermonID)
		if err != nil {
			continue
		}
		citations = append(citations, &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			SermonId:      sermonId,
			Similarity:    scoreBySermon[ref.SermonID],
			CreatedAt:     now,
		})
	}
	return citations
}

func (cs *chatService) loadReferences(ctx context.Context, uow unitofwork.UnitOfWork, messageIds []uuid.UUID) (map[uuid.UUID][]dto.SermonReferenceDTO, error) {
	refsByMsgId := make(map[uuid.UUID][]dto.SermonReferenceDTO)
	if len(messageIds) == 0 {
		return refsByMsgId, nil
	}

	citations, err := uow.ChatCitationRepository().FindAll(ctx,
		specification.ByChatMessageIDs{ChatMessageIDs: messageIds},
	)
	if err != nil {
		return nil, err
	}
	if len(citations) == 0 {
		return refsByMsgId, nil
	}

	sermonIds := make([]uuid.UUID, 0, len(citations))
	seen := make(map[uuid.UUID]bool, len(citations))
	for _, c := range citations {
		if !seen[c.SermonId] {
			seen[c.SermonId] = true
			sermonIds = append(sermonIds, c.SermonId)
		}
	}

	sermons, err := uow.SermonRepository().FindByIds(ctx, sermonIds)
	if err != nil {
		return nil, err
	}
	sermonById := make(map[uuid.UUID]*entity.Sermon, len(sermons))
	for _, s := range sermons {
		sermonById[s.Id] = s
	}

	for _, c := range citations {
		sermon, ok := sermonById[c.SermonId]
		if !ok {
			continue
		}
		refsByMsgId[c.ChatMessageId] = append(refsByMsgId[c.ChatMessageId], dto.SermonReferenceDTO{
			SermonId:     sermon.Id,
			Title:        sermon.Title,
			Date:         sermon.SermonDate.Format("2006년 01월 02일"),
			Scripture:    sermon.Scripture,
			ThumbnailURL: sermon.ThumbnailURL,
		})
	}
	return refsByMsgId, nil
}

func toReferenceDTOs(refs []state.Reference) []dto.SermonReferenceDTO {
	out := make([]dto.SermonReferenceDTO, 0, len(refs))
	for _, ref := range refs {
		sermonId, err := uuid.Parse(ref.SermonID)
		if err != nil {
			continue
		}
		out = append(out, dto.SermonReferenceDTO{
			SermonId:     sermonId,
			Title:        ref.Title,
			Date:         ref.Date,
			Scripture:    ref.Scripture,
			ThumbnailURL: ref.ThumbnailURL,
		})
	}
	return out
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= sessionTitleMaxRunes {
		return s
	}
	return string(runes[:sessionTitleMaxRunes]) + "..."
}
