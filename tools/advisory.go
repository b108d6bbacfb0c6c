package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/knowledge"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const advisoryResults = 3

var errNoKnowledgeBase = errors.New("knowledge base is not configured")

// CropAdvisory answers agronomy questions from the research knowledge base.
type CropAdvisory struct {
	searcher knowledge.Searcher
}

func NewCropAdvisory(searcher knowledge.Searcher) *CropAdvisory {
	return &CropAdvisory{searcher: searcher}
}

func (a *CropAdvisory) Tool() ToolSpec {
	return NewToolBuilder(KindCropAdvisory,
		"Queries the knowledge base for scientific crop advice and agricultural research from IARI and other agricultural institutions.").
		StringParam("query", "The agricultural question to research.", true).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return a.Advise(ctx, stringArg(args, "query"))
		}).
		Build()
}

func (a *CropAdvisory) Advise(ctx context.Context, query string) string {
	if a.searcher == nil {
		return fmt.Sprintf("An error occurred while fetching crop advisory: %v", errNoKnowledgeBase)
	}

	passages, err := a.searcher.Search(ctx, query, advisoryResults)
	if err != nil {
		logger.Error("Knowledge base search failed", zap.String("query", query), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching crop advisory: %v", err)
	}

	if len(passages) == 0 {
		return "No relevant information found in the knowledge base. Try rephrasing your query or asking about common crops like rice, wheat, or tomato."
	}

	var b strings.Builder
	b.WriteString("Agricultural Research Findings:\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for i, passage := range passages {
		fmt.Fprintf(&b, "Research Finding %d:\n%s\n", i+1, passage)
		if i < len(passages)-1 {
			b.WriteString("\n" + strings.Repeat("-", 30) + "\n\n")
		}
	}

	b.WriteString("\nSource: Agricultural research database (IARI and associated institutions)")
	return b.String()
}
