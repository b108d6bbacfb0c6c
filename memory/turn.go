package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/krishi-boot/llm"
)

// Turn is one message of a farmer conversation. Turns are append-only and
// kept in chronological order.
type Turn struct {
	Role      string    `json:"role" bson:"role"` // "user" or "assistant"
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Role: llm.RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: llm.RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// FormatTurns renders turns as newline separated "role: content" lines.
func FormatTurns(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return strings.Join(lines, "\n")
}
