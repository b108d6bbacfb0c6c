package memory

import "errors"

var (
	errNoSummaryModel = errors.New("no summarization model configured")
	errEmptySummary   = errors.New("summarization model returned no text")
)
