package job

// Request describes the work a sync job performs. The engine treats it as
// opaque apart from two things: Command selects the handler, and a
// non-empty ConversationID makes the job conversation-scoped, serializing
// its execution against all other jobs sharing that conversation.
type Request struct {
	// Command names the handler that performs this work
	// (e.g. "send_message", "fetch_state", "upload_asset").
	Command string `json:"command"`

	// ConversationID scopes execution to a conversation. Empty means the
	// job executes independently of all others.
	ConversationID string `json:"conversation_id,omitempty"`

	// Payload is the handler's JSON-encoded input.
	Payload []byte `json:"payload,omitempty"`

	// IdempotencyKey deduplicates submissions at the backend. Assigned at
	// submit time when empty.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ConversationScoped reports whether this request requires serialized
// execution within its conversation.
func (r Request) ConversationScoped() bool {
	return r.ConversationID != ""
}
