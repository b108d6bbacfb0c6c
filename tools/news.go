package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const (
	gnewsURL        = "https://gnews.io/api/v4/search"
	maxNewsArticles = 4
)

var newsTopics = []string{"general", "technology", "market", "weather"}

var newsTopicQueries = map[string]string{
	"general":    `agriculture OR farming OR crops OR "farm subsidies"`,
	"technology": `"agricultural technology" OR "smart farming" OR "precision agriculture" OR "drone farming"`,
	"market":     `"agricultural market" OR "crop prices" OR "commodity prices" OR "mandi prices"`,
	"weather":    `"weather agriculture" OR "drought crops" OR "monsoon farming" OR "climate change agriculture"`,
}

var errNewsKeyMissing = errors.New("GNews API key is not configured")

// NewsClient searches GNews for Indian agricultural headlines.
type NewsClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

type NewsOption func(*NewsClient)

func WithNewsURL(u string) NewsOption {
	return func(c *NewsClient) {
		if u != "" {
			c.url = u
		}
	}
}

func WithNewsHTTPClient(httpClient *http.Client) NewsOption {
	return func(c *NewsClient) { c.httpClient = httpClient }
}

// NewNewsClient reads GNEWS_API_KEY.
func NewNewsClient(opts ...NewsOption) *NewsClient {
	c := &NewsClient{
		apiKey:     os.Getenv("GNEWS_API_KEY"),
		url:        gnewsURL,
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *NewsClient) Tool() ToolSpec {
	return NewToolBuilder(KindAgriNews,
		"Fetches the latest news about a specific agricultural topic: market trends, new technologies, weather impacts, or general farming news.").
		EnumParam("topic", "The category of news to fetch.", newsTopics, true).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.Headlines(ctx, stringArg(args, "topic"))
		}).
		Build()
}

type gnewsResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *NewsClient) Headlines(ctx context.Context, topic string) string {
	query, ok := newsTopicQueries[topic]
	if !ok {
		return fmt.Sprintf("Invalid topic '%s'. Please use one of the following: %s", topic, strings.Join(newsTopics, ", "))
	}

	if c.apiKey == "" {
		return fmt.Sprintf("An error occurred while fetching news on '%s': %v", topic, errNewsKeyMissing)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", "en")
	params.Set("country", "in")
	params.Set("max", strconv.Itoa(maxNewsArticles))
	params.Set("apikey", c.apiKey)
	params.Set("sortby", "publishedAt")

	var resp gnewsResponse
	if err := getJSON(ctx, c.httpClient, c.url, params, &resp); err != nil {
		// a failed fetch reads the same as an empty result to the agent
		logger.Error("Error fetching news from GNews", zap.String("topic", topic), zap.Error(err))
	}

	if len(resp.Articles) == 0 {
		return fmt.Sprintf("I could not find any recent news on the topic of '%s'.", topic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the top news headlines regarding '%s':\n", topic)
	for _, article := range resp.Articles {
		title := article.Title
		if title == "" {
			title = "No Title"
		}
		source := article.Source.Name
		if source == "" {
			source = "Unknown Source"
		}
		fmt.Fprintf(&b, "- %s (Source: %s)\n", title, source)
	}

	return strings.TrimSpace(b.String())
}
