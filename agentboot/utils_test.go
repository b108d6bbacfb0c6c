package agentboot

import (
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
)

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"hello", true},
		{"  Hello  ", true},
		{"HEY", true},
		{"namaskar", true},
		{"ਸਤ   ਸ੍ਰੀ\tਅਕਾਲ", true},
		{"নমস্কার", true},
		{"hello there", false},
		{"hi!", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsGreeting(tt.input))
		})
	}
}

func TestFormatToolInputsToMarkdown(t *testing.T) {
	assert.Equal(t, "Tool: `get\\_current\\_datetime` (no parameters)\n",
		formatToolInputsToMarkdown("get_current_datetime", nil))

	out := formatToolInputsToMarkdown("get_market_prices", api.ToolCallFunctionArguments{
		"state": "Haryana",
		"crop":  "Wheat",
		"tags":  []interface{}{"a", 1},
	})
	assert.Equal(t, "Tool: `get\\_market\\_prices`\n\nParameters:\n- **crop**: Wheat\n- **state**: Haryana\n- **tags**: a, 1\n", out)
}

func TestMdEscape(t *testing.T) {
	assert.Equal(t, "", mdEscape(""))
	assert.Equal(t, `a\|b\*c\_d\#e &lt;f&gt;`, mdEscape("a|b*c_d#e <f>"))
	assert.Equal(t, `\\\[x\]`, mdEscape(`\[x]`))
}
