package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"sermon-agent-be/pkg/agent/state"
)

// ConversationRepository keeps live pipeline state per chat session. Sessions
// idle for an hour are evicted; the durable record lives in Postgres.
type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (r *ConversationRepository) Save(conv state.Conversation) {
	r.cache.Set(conv.SessionID, conv, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(sessionID string) (state.Conversation, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(state.Conversation), true
	}
	return state.Conversation{}, false
}

func (r *ConversationRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
