package agentboot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/ollama/ollama/api"
)

// RunTools invokes every call concurrently and returns traces in call order.
// The registry turns failures into observations, so no call can fail the step.
func (a *Agent) RunTools(ctx context.Context, reporter ProgressReporter, calls []api.ToolCall) []ToolTrace {
	tasks := make([]<-chan async.Result[ToolTrace], len(calls))
	for i, call := range calls {
		reporter.Send(NewToolStarted(call.Function.Name, call.Function.Arguments))

		tasks[i] = async.Go(func() (ToolTrace, error) {
			start := time.Now()
			observation := a.config.Registry.Invoke(ctx, call.Function.Name, call.Function.Arguments)
			return ToolTrace{
				Name:        call.Function.Name,
				Arguments:   call.Function.Arguments,
				Observation: observation,
				Duration:    time.Since(start),
			}, nil
		})
	}

	traces := make([]ToolTrace, 0, len(calls))
	for _, task := range tasks {
		trace, _ := async.Await(task)
		reporter.Send(NewToolFinished(trace))
		traces = append(traces, trace)
	}
	return traces
}

// toolResultMessage renders an observation as the user-role message the model sees next.
func toolResultMessage(trace ToolTrace) string {
	return formatToolInputsToMarkdown(trace.Name, trace.Arguments) + "\nResult:\n" + trace.Observation
}

// formatToolInputsToMarkdown formats tool inputs as markdown
func formatToolInputsToMarkdown(toolName string, params api.ToolCallFunctionArguments) string {
	if len(params) == 0 {
		return fmt.Sprintf("Tool: `%s` (no parameters)\n", mdEscape(toolName))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tool: `%s`\n\n", mdEscape(toolName)))

	// Sort parameters for deterministic output
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("Parameters:\n")
	for _, k := range keys {
		var valueStr string
		switch v := params[k].(type) {
		case string:
			valueStr = v
		case []string:
			valueStr = strings.Join(v, ", ")
		case []interface{}:
			strs := make([]string, len(v))
			for i, item := range v {
				strs[i] = fmt.Sprintf("%v", item)
			}
			valueStr = strings.Join(strs, ", ")
		default:
			valueStr = fmt.Sprintf("%v", v)
		}

		b.WriteString(fmt.Sprintf("- **%s**: %s\n", mdEscape(k), mdEscape(valueStr)))
	}

	return b.String()
}

// Minimal Markdown escaper for headings, lists, and table cells.
func mdEscape(s string) string {
	if s == "" {
		return s
	}
	// Backslash first
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "*", `\*`)
	s = strings.ReplaceAll(s, "_", `\_`)
	s = strings.ReplaceAll(s, "~", `\~`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "[", `\[`)
	s = strings.ReplaceAll(s, "]", `\]`)
	s = strings.ReplaceAll(s, "#", `\#`)
	// Angle brackets -> HTML entities to avoid autolinks
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
