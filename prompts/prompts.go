package prompts

import (
	"bytes"
	"embed"
	"path"
	"text/template"

	"github.com/Masterminds/sprig"
)

//go:embed templates/*
var templatesFS embed.FS

func loadPrompt(templatePath string, data any) (string, error) {
	tmpl, err := template.New(path.Base(templatePath)).
		Funcs(sprig.TxtFuncMap()).
		ParseFS(templatesFS, templatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// RenderContextSummaryPrompt renders the farmer profile extraction prompt
// for an already formatted "role: content" history.
func RenderContextSummaryPrompt(chatHistory string) (string, error) {
	return loadPrompt("templates/context_summary.md", struct {
		ChatHistory string
	}{
		ChatHistory: chatHistory,
	})
}

// RenderLanguageDirective instructs the model to answer in the given language.
func RenderLanguageDirective(name, code string) (string, error) {
	return loadPrompt("templates/language_directive.md", struct {
		Name string
		Code string
	}{
		Name: name,
		Code: code,
	})
}

type AgentSystemPromptData struct {
	LanguageDirective string
	ContextBlock      string
	Tools             []string
}

func RenderAgentSystemPrompt(data AgentSystemPromptData) (string, error) {
	return loadPrompt("templates/agent_system.md", data)
}

// RenderToolProtocolPrompt wraps a system prompt with the JSON reply protocol
// used by models without native tool calling.
func RenderToolProtocolPrompt(system string, tools []string) (string, error) {
	return loadPrompt("templates/tool_protocol.md", struct {
		System string
		Tools  []string
	}{
		System: system,
		Tools:  tools,
	})
}

func RenderParseCorrection(reason string, tools []string) (string, error) {
	return loadPrompt("templates/parse_correction.md", struct {
		Reason string
		Tools  []string
	}{
		Reason: reason,
		Tools:  tools,
	})
}

func RenderForcedAnswer() (string, error) {
	return loadPrompt("templates/forced_answer.md", nil)
}

// RenderFarmAdvisoryPrompt renders the self-contained advisory prompt handed
// to MCP clients, which run their own model against the farm tools.
func RenderFarmAdvisoryPrompt(systemPrompt, question, languageName string) (string, error) {
	return loadPrompt("templates/farm_advisory.md", struct {
		SystemPrompt string
		Question     string
		LanguageName string
	}{
		SystemPrompt: systemPrompt,
		Question:     question,
		LanguageName: languageName,
	})
}
