package services

import "github.com/SaiNageswarS/krishi-boot/language"

// Composer shapes the agent's raw answer for the farmer's language.
type Composer struct {
	languages *language.Resolver
}

func NewComposer(languages *language.Resolver) *Composer {
	return &Composer{languages: languages}
}

// Compose prepends the localized "<contextType>_intro" template when one
// exists. Without a context type the text is returned unchanged.
func (c *Composer) Compose(raw, lang, contextType string) string {
	if contextType == "" {
		return raw
	}

	code := c.languages.Resolve(lang).Code
	intro := c.languages.Template(code, contextType+"_intro")
	if intro == "" {
		return raw
	}
	return intro + "\n\n" + raw
}

// Translate is a passthrough. The agent is instructed to answer in the
// target language, so no machine translation is applied.
func (c *Composer) Translate(text, lang string) string {
	return text
}
