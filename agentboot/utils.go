package agentboot

import (
	"strings"
	"time"

	"github.com/SaiNageswarS/go-collection-boot/ds"
)

func getCurrentTimeMs() int64 {
	return time.Now().UnixMilli()
}

var greetings = ds.NewSet[string]()

func init() {
	for _, g := range []string{
		"hello", "hi", "hey", "namaste", "namaskar",
		"नमस्ते", "नमस्कार", "ਸਤ ਸ੍ਰੀ ਅਕਾਲ", "নমস্কার",
	} {
		greetings.Add(g)
	}
}

// normalizeInput trims, collapses internal whitespace and lowercases.
func normalizeInput(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// IsGreeting reports whether input is a bare greeting, which is answered
// from the language table without any model call.
func IsGreeting(input string) bool {
	return greetings.Contains(normalizeInput(input))
}
