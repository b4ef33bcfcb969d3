package domain

// Role classifies who produced a chat message.
type Role string

// Recognised roles. Model output carrying any other value is coerced
// to RoleUnknown during validation rather than rejected.
const (
	// RoleAgent is an internal participant (agent, rep, EXT).
	RoleAgent Role = "Agent"

	// RoleUser is an external participant (customer, guest).
	RoleUser Role = "User"

	// RoleUnknown is any participant that could not be classified.
	RoleUnknown Role = "Unknown"
)

// NormaliseRole maps an arbitrary role string from model output onto one
// of the recognised roles. Matching is case-insensitive and tolerant of
// the synonyms the parsing prompt mentions; everything else is Unknown.
func NormaliseRole(s string) Role {
	switch lower(s) {
	case "agent", "internal", "ext", "rep", "support":
		return RoleAgent
	case "user", "customer", "client", "guest", "external":
		return RoleUser
	default:
		return RoleUnknown
	}
}

// lower is a dependency-free ASCII ToLower, sufficient for role tokens.
func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ChatRecord is one structured output unit of the parsing pipeline.
// It has no identity beyond its position in a sequence; equality is
// structural across all four fields.
type ChatRecord struct {
	// Time is the raw timestamp text as it appeared in the transcript,
	// or nil when the transcript carried none.
	Time *string `json:"time"`

	// Speaker is the participant name, "Unknown" when absent.
	Speaker string `json:"speaker"`

	// Role classifies the speaker.
	Role Role `json:"role"`

	// Message is the utterance text with punctuation and emojis preserved.
	Message string `json:"message"`
}

// Equal reports structural equality across all four fields.
func (r ChatRecord) Equal(other ChatRecord) bool {
	if r.Speaker != other.Speaker || r.Role != other.Role || r.Message != other.Message {
		return false
	}
	if (r.Time == nil) != (other.Time == nil) {
		return false
	}
	return r.Time == nil || *r.Time == *other.Time
}

// ConversationResult is the final, ordered, duplicate-free record sequence
// for one input conversation. It is transient: created once per conversation
// per run and owned by the pipeline invocation that produced it.
type ConversationResult struct {
	// ConversationID identifies the source conversation.
	ConversationID string

	// Records spans all of the conversation's chunks, overlap-resolved,
	// in chunk order then intra-chunk order.
	Records []ChatRecord
}
