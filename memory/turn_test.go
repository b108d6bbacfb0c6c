package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTurns(t *testing.T) {
	turns := []Turn{
		UserTurn("My wheat leaves are yellow"),
		AssistantTurn("Check for yellow rust."),
		UserTurn("Which spray?"),
	}

	assert.Equal(t, "user: My wheat leaves are yellow\nassistant: Check for yellow rust.\nuser: Which spray?", FormatTurns(turns))
	assert.Equal(t, "", FormatTurns(nil))
}
