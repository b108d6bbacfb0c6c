package memory

import "time"

// Conversation is the archived transcript of one chat or voice session.
type Conversation struct {
	ID        string    `bson:"_id" json:"session_id"`
	Language  string    `bson:"language" json:"language"`
	Turns     []Turn    `bson:"turns" json:"turns"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

func (m Conversation) Id() string {
	return m.ID
}

func (m Conversation) CollectionName() string {
	return "conversations"
}

func (m *Conversation) AddUserTurn(content string) {
	m.Turns = append(m.Turns, UserTurn(content))
}

func (m *Conversation) AddAssistantTurn(content string) {
	m.Turns = append(m.Turns, AssistantTurn(content))
}
