package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Daily mandi prices published on data.gov.in.
const defaultMarketPriceURL = "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"

type dataGovResponse struct {
	Records []map[string]any `json:"records"`
}

// MarketClient fetches commodity prices from data.gov.in.
type MarketClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

type MarketOption func(*MarketClient)

func WithMarketURL(u string) MarketOption {
	return func(c *MarketClient) {
		if u != "" {
			c.url = u
		}
	}
}

func WithMarketHTTPClient(httpClient *http.Client) MarketOption {
	return func(c *MarketClient) { c.httpClient = httpClient }
}

// NewMarketClient reads GOV_IN_API_KEY.
func NewMarketClient(opts ...MarketOption) *MarketClient {
	c := &MarketClient{
		apiKey:     os.Getenv("GOV_IN_API_KEY"),
		url:        defaultMarketPriceURL,
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MarketClient) Tool() ToolSpec {
	return NewToolBuilder(KindMarketPrices,
		"Gets real-time crop prices from specific markets using the official data.gov.in API.").
		StringParam("crop", `The name of the crop/commodity (e.g., "Wheat", "Rice", "Potato", "Tomato").`, true).
		StringParam("market", `The name of the market/mandi (e.g., "Hisar", "Delhi"). Leave empty to search all markets.`, false).
		StringParam("state", `The state name (e.g., "Haryana", "Karnataka"). Leave empty to search all states.`, false).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return c.Prices(ctx, stringArg(args, "crop"), stringArg(args, "market"), stringArg(args, "state"))
		}).
		Build()
}

// Prices lists up to ten price records in rupees per quintal.
func (c *MarketClient) Prices(ctx context.Context, crop, market, state string) string {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", "20")
	params.Set("offset", "0")
	if strings.TrimSpace(market) != "" {
		params.Set("filters[market]", market)
	}
	if strings.TrimSpace(crop) != "" {
		params.Set("filters[commodity]", crop)
	}
	if strings.TrimSpace(state) != "" {
		params.Set("filters[state.keyword]", state)
	}

	var resp dataGovResponse
	if err := getJSON(ctx, c.httpClient, c.url, params, &resp); err != nil {
		logger.Error("Market price lookup failed", zap.String("crop", crop), zap.Error(err))
		return fmt.Sprintf("An error occurred while fetching market prices: %v", err)
	}

	if len(resp.Records) == 0 {
		msg := fmt.Sprintf("No price data found for %s", crop)
		if state != "" {
			msg += fmt.Sprintf(" in %s", state)
		}
		return msg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market Prices for %s:\n", crop)
	b.WriteString(strings.Repeat("=", 50) + "\n")

	for i, record := range resp.Records[:min(len(resp.Records), 10)] {
		fmt.Fprintf(&b, "\n%d. %s, %s, %s\n", i+1,
			recordString(record, "market"), recordString(record, "district"), recordString(record, "state"))

		fmt.Fprintf(&b, "   Commodity: %s", recordString(record, "commodity"))
		if variety := recordString(record, "variety"); variety != "N/A" {
			fmt.Fprintf(&b, " (%s)", variety)
		}
		if grade := recordString(record, "grade"); grade != "N/A" {
			fmt.Fprintf(&b, " - Grade: %s", grade)
		}
		b.WriteString("\n")

		fmt.Fprintf(&b, "   Date: %s\n", recordString(record, "arrival_date"))
		fmt.Fprintf(&b, "   Min Price: ₹%s/quintal\n", recordString(record, "min_price"))
		fmt.Fprintf(&b, "   Max Price: ₹%s/quintal\n", recordString(record, "max_price"))
		fmt.Fprintf(&b, "   Modal Price: ₹%s/quintal\n", recordString(record, "modal_price"))
	}

	b.WriteString("\nNote: Prices are in Indian Rupees per quintal (100 kg)")
	b.WriteString("\nData source: Government of India - data.gov.in")
	return b.String()
}
