package memory

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"go.uber.org/zap"
)

// ConversationManager archives transcripts. The agent never reads from it:
// history is always supplied by the caller on each request.
type ConversationManager struct {
	collection odm.OdmCollectionInterface[Conversation]
	maxTurns   int
}

// NewConversationManager accepts a nil collection, in which case nothing is archived.
func NewConversationManager(collection odm.OdmCollectionInterface[Conversation], maxTurns int) *ConversationManager {
	return &ConversationManager{
		collection: collection,
		maxTurns:   maxTurns,
	}
}

func (cm *ConversationManager) Enabled() bool {
	return cm != nil && cm.collection != nil
}

// LoadSession returns the archived transcript, or an empty one for unknown sessions.
func (cm *ConversationManager) LoadSession(ctx context.Context, sessionID string) *Conversation {
	if !cm.Enabled() {
		return &Conversation{ID: sessionID}
	}

	session, err := async.Await(cm.collection.FindOneByID(ctx, sessionID))
	if err != nil || session == nil {
		if err != nil {
			logger.Error("Failed to find session", zap.String("sessionId", sessionID), zap.Error(err))
		}
		return &Conversation{ID: sessionID}
	}

	return session
}

// SaveSession saves the transcript after trimming it to the last maxTurns user turns.
func (cm *ConversationManager) SaveSession(ctx context.Context, conversation *Conversation) error {
	if !cm.Enabled() {
		return nil
	}

	conversation.Turns = cm.trimForSession(conversation.Turns)
	conversation.UpdatedAt = time.Now().UTC()

	_, err := async.Await(cm.collection.Save(ctx, *conversation))
	if err != nil {
		logger.Error("Failed to save session", zap.String("sessionId", conversation.ID), zap.Error(err))
		return err
	}

	return nil
}

// AppendExchange archives one farmer question and its answer.
func (cm *ConversationManager) AppendExchange(ctx context.Context, sessionID, language, question, answer string) error {
	if !cm.Enabled() || sessionID == "" {
		return nil
	}

	conversation := cm.LoadSession(ctx, sessionID)
	conversation.Language = language
	conversation.AddUserTurn(question)
	conversation.AddAssistantTurn(answer)
	return cm.SaveSession(ctx, conversation)
}

// trimForSession keeps the last maxTurns user turns and everything after the
// oldest of them. Fewer user turns than maxTurns leaves turns unchanged.
func (cm *ConversationManager) trimForSession(turns []Turn) []Turn {
	if cm.maxTurns <= 0 || len(turns) == 0 {
		return []Turn{}
	}

	usersSeen := 0
	start := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == llm.RoleUser {
			usersSeen++
			if usersSeen == cm.maxTurns {
				start = i
				break
			}
		}
	}

	return turns[start:]
}
