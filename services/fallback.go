package services

import (
	"strings"
	"unicode/utf8"

	"github.com/SaiNageswarS/krishi-boot/language"
)

const defaultFallback = "Thank you for your question! I'm experiencing some technical difficulties right now, but I'm here to help with all your farming needs. Please try asking again in a moment."

type fallbackTopic struct {
	topic    string // key into the language keyword table
	keywords []string
	response string
}

// Checked in order; the first topic with a matching keyword wins.
var fallbackTopics = []fallbackTopic{
	{
		topic:    "weather",
		keywords: []string{"weather", "rain", "temperature"},
		response: "I'd love to help you with weather information! However, I'm currently having trouble connecting to my weather services. Please try again in a moment.",
	},
	{
		topic:    "crops",
		keywords: []string{"crop", "plant", "seed", "harvest"},
		response: "I can provide crop advisory, but I'm currently experiencing some technical difficulties. In the meantime, ensure your crops are getting adequate water and check for any signs of pests or diseases.",
	},
	{
		topic:    "market",
		keywords: []string{"price", "market", "sell", "buy"},
		response: "I apologize, but I can't access current market prices right now. I recommend checking your local market or agricultural department for the latest pricing information.",
	},
	{
		topic:    "soil",
		keywords: []string{"soil", "fertilizer", "manure"},
		response: "Soil health is crucial for good crops! While I can't access specific soil data right now, remember to maintain proper pH levels and organic matter in your soil.",
	},
	{
		topic:    "pests",
		keywords: []string{"pest", "disease", "insect"},
		response: "For pest and disease management, I recommend consulting your local agricultural extension officer. In general, regular monitoring and early intervention are key to preventing major infestations.",
	},
}

// FallbackResponse answers from a fixed keyword table while the agent is
// unavailable. Keywords of the request language are matched as well as the
// English ones.
func FallbackResponse(languages *language.Resolver, message, lang string) string {
	lower := strings.ToLower(message)

	var localized map[string][]string
	if languages != nil {
		localized = languages.Keywords(lang)
	}

	for _, t := range fallbackTopics {
		if containsAny(lower, t.keywords) || containsAny(lower, localized[t.topic]) {
			return t.response
		}
	}
	return defaultFallback
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		// Very short keywords such as "pH" match inside unrelated words.
		if utf8.RuneCountInString(k) < 3 {
			continue
		}
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
