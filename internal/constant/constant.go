package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	DefaultSessionTitle = "새 대화"

	// Logger module names
	ModuleChatService = "ChatService"
	ModuleSermon      = "SermonService"
	ModuleConsumer    = "ConsumerService"
	ModuleServer      = "Server"
)
