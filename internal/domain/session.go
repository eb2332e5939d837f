package domain

// Profile is a fixed doctor persona selectable by a short identifier.
type Profile struct {
	ID        string `json:"id"`
	AgentName string `json:"agent_name"`
	AvatarID  string `json:"avatar_id"`
}

// SessionPayload is the parameter set handed to the avatar-streaming client.
// JSON names follow the streaming SDK's field names.
type SessionPayload struct {
	AvatarName          string `json:"avatarName"`
	Language            string `json:"language"`
	KnowledgeBase       string `json:"knowledgeBase"`
	Quality             string `json:"quality"`
	ActivityIdleTimeout int    `json:"activityIdleTimeout"`
	VoiceChatTransport  string `json:"voiceChatTransport"`
}

// SessionDescriptor is everything a client needs to start a call. It is built
// per request and never stored.
type SessionDescriptor struct {
	Token              string         `json:"token"`
	Session            SessionPayload `json:"session"`
	Greeting           *string        `json:"greeting,omitempty"`
	EffectiveKnowledge *string        `json:"effective_knowledge,omitempty"`
}
