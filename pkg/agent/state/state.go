package state

import (
	"strings"
	"time"
)

// Stage tags how far a turn has progressed through the pipeline.
type Stage string

const (
	StageRouted    Stage = "routed"
	StageRetrieved Stage = "retrieved"
	StageAnswered  Stage = "answered"
)

// Category is the question class decided by the router.
type Category string

const (
	CategorySermonPrep             Category = "sermon-prep"
	CategoryCounseling             Category = "counseling"
	CategoryBiblicalInterpretation Category = "biblical-interpretation"
	CategorySermonSearch           Category = "sermon-search"
	CategorySmallTalk              Category = "small-talk"
	CategoryOther                  Category = "other"
)

// CategoryFromToken maps the uppercase classifier tokens the model emits to a
// Category. Unknown tokens fold to CategoryOther.
func CategoryFromToken(token string) Category {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SERMON_PREP":
		return CategorySermonPrep
	case "COUNSELING":
		return CategoryCounseling
	case "SCRIPTURE_QA":
		return CategoryBiblicalInterpretation
	case "SERMON_SEARCH":
		return CategorySermonSearch
	case "SMALL_TALK":
		return CategorySmallTalk
	default:
		return CategoryOther
	}
}

// ProfileMode selects the response style for a turn.
type ProfileMode string

const (
	ProfileResearch   ProfileMode = "research"
	ProfileCounseling ProfileMode = "counseling"
	ProfileEducation  ProfileMode = "education"
)

// ValidProfileMode reports whether mode is one of the supported styles.
func ValidProfileMode(mode ProfileMode) bool {
	switch mode {
	case ProfileResearch, ProfileCounseling, ProfileEducation:
		return true
	}
	return false
}

// Message is one prior turn in the conversation log. Append-only.
type Message struct {
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RouterDecision is produced once per turn and immutable afterward.
type RouterDecision struct {
	Category Category `json:"category"`
	UseRAG   bool     `json:"use_rag"`
	Reason   string   `json:"reason"`
}

// SermonCandidate is one scored hit from the sermon archive, produced fresh
// per retrieval call.
type SermonCandidate struct {
	SermonID     string    `json:"sermon_id"`
	Title        string    `json:"title"`
	SermonDate   time.Time `json:"sermon_date"`
	Scripture    string    `json:"scripture"`
	Summary      string    `json:"summary"`
	Preacher     string    `json:"preacher"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Score        float64   `json:"score"`
	SourceField  string    `json:"source_field"` // which embedded field matched: title | summary
}

// Retrieval captures one turn's search outcome. Empty is set explicitly when
// nothing survived the similarity floor so the composer never has to infer it.
type Retrieval struct {
	SearchQuery string            `json:"search_query"`
	Raw         []SermonCandidate `json:"raw"`
	Empty       bool              `json:"empty"`
}

// Reference is one cited sermon in the final answer.
type Reference struct {
	SermonID     string `json:"sermon_id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Scripture    string `json:"scripture"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Answer is the structured result of a completed turn.
type Answer struct {
	Text          string      `json:"text"`
	References    []Reference `json:"references"`
	ScriptureRefs []string    `json:"scripture_refs"`
	Category      Category    `json:"category"`
	ProfileMode   ProfileMode `json:"profile_mode"`
}

// Conversation is the per-turn pipeline state. Stages never mutate it in
// place; each transition returns a new value with its fields populated, so a
// half-finished turn can never leak out as a final answer.
type Conversation struct {
	SessionID      string
	UserID         string
	TurnCount      int
	StartedAt      time.Time
	LastActivityAt time.Time
	Messages       []Message
	ProfileMode    ProfileMode
	UserInput      string

	Stage       Stage
	Router      RouterDecision
	Retrieval   Retrieval
	RAGSnippets []SermonCandidate
	Answer      Answer
}

// WithRouted commits the router decision and enters the Routed stage. Any
// leftover retrieval from a previous turn is cleared here.
func (c Conversation) WithRouted(decision RouterDecision) Conversation {
	c.Stage = StageRouted
	c.Router = decision
	c.Retrieval = Retrieval{}
	c.RAGSnippets = nil
	c.Answer = Answer{}
	return c
}

// WithRetrieved commits the search outcome and enters the Retrieved stage.
func (c Conversation) WithRetrieved(retrieval Retrieval, snippets []SermonCandidate) Conversation {
	c.Stage = StageRetrieved
	c.Retrieval = retrieval
	c.RAGSnippets = snippets
	return c
}

// WithAnswered commits the final answer atomically: the stage flips to
// Answered, the turn counter advances, and the user/assistant exchange is
// appended to the log in one transition.
func (c Conversation) WithAnswered(answer Answer, now time.Time) Conversation {
	c.Stage = StageAnswered
	c.Answer = answer
	c.TurnCount++
	c.LastActivityAt = now

	messages := make([]Message, 0, len(c.Messages)+2)
	messages = append(messages, c.Messages...)
	messages = append(messages,
		Message{Role: "user", Content: c.UserInput, CreatedAt: now},
		Message{Role: "assistant", Content: answer.Text, CreatedAt: now},
	)
	c.Messages = messages
	return c
}

// RecentHistory returns up to n of the latest messages for prompt building.
func (c Conversation) RecentHistory(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}
