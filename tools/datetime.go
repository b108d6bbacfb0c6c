package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ollama/ollama/api"
)

const defaultTimezone = "Asia/Kolkata"

// DateTimeTool reports the current time with time-of-day, seasonal and
// weekday farming guidance.
type DateTimeTool struct {
	now func() time.Time
}

// NewDateTimeTool uses time.Now when now is nil.
func NewDateTimeTool(now func() time.Time) *DateTimeTool {
	if now == nil {
		now = time.Now
	}
	return &DateTimeTool{now: now}
}

func (d *DateTimeTool) Tool() ToolSpec {
	return NewToolBuilder(KindCurrentDateTime,
		"Gets the current date and time with agricultural activity recommendations.").
		StringParam("timezone", `IANA timezone, e.g. "Asia/Kolkata" (default), "UTC".`, false).
		WithHandler(func(ctx context.Context, args api.ToolCallFunctionArguments) string {
			return d.Describe(stringArg(args, "timezone"))
		}).
		Build()
}

func (d *DateTimeTool) Describe(timezone string) string {
	if timezone == "" {
		timezone = defaultTimezone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Sprintf("An error occurred while getting current time: %v", err)
	}

	now := d.now().In(loc)
	season := seasonOf(now.Month())

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Current Date & Time:**\n%s\n\n", now.Format("Monday, January 02, 2006 at 03:04 PM MST"))
	b.WriteString(timeOfDayAdvice(now.Hour()))

	fmt.Fprintf(&b, "\n🍃 **%s Season Guidance:**\n", season)
	b.WriteString(bullets(seasonAdvice[season]...))

	fmt.Fprintf(&b, "\n📅 **%s Recommendations:**\n", now.Weekday())
	b.WriteString(bullets(weekdayAdvice(now.Weekday())...))

	b.WriteString("\n⏰ **Agricultural Timing Tips:**\n")
	b.WriteString(bullets(
		"Best irrigation: Early morning (6-8 AM) or evening (6-8 PM)",
		"Avoid spraying during hot midday hours",
		"Morning dew helps in pest control observations",
		"Evening time is ideal for foliar sprays",
	))

	return b.String()
}

func seasonOf(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Monsoon/Summer"
	default:
		return "Post-Monsoon/Autumn"
	}
}

var seasonAdvice = map[string][]string{
	"Winter": {
		"Focus on winter crops (wheat, peas, mustard)",
		"Reduce irrigation frequency",
		"Protect crops from frost",
		"Good time for soil preparation",
	},
	"Spring": {
		"Prepare for summer crops",
		"Start irrigation systems",
		"Plant heat-tolerant varieties",
		"Monitor for pest emergence",
	},
	"Monsoon/Summer": {
		"Plant monsoon crops (rice, cotton, sugarcane)",
		"Ensure proper drainage",
		"Monitor for waterlogging",
		"Pest and disease management",
	},
	"Post-Monsoon/Autumn": {
		"Harvest monsoon crops",
		"Prepare for winter sowing",
		"Post-harvest processing",
		"Field preparation for next cycle",
	},
}

func timeOfDayAdvice(hour int) string {
	switch {
	case hour >= 5 && hour < 8:
		return "🌅 **Early Morning (5-8 AM)** - Ideal time for:\n" + bullets(
			"Irrigation and watering",
			"Harvesting (crops are fresh and cool)",
			"Applying pesticides (less wind, better absorption)",
			"Farm inspections and planning")
	case hour >= 8 && hour < 11:
		return "🌞 **Morning (8-11 AM)** - Good time for:\n" + bullets(
			"Field work and cultivation",
			"Transplanting seedlings",
			"Fertilizer application",
			"Equipment maintenance")
	case hour >= 11 && hour < 15:
		return "**Midday (11 AM-3 PM)** - Avoid heavy work, but suitable for:\n" + bullets(
			"Indoor farm activities",
			"Planning and record keeping",
			"Drying harvested crops",
			"Market visits (avoid irrigation during this time)")
	case hour >= 15 && hour < 18:
		return "**Afternoon (3-6 PM)** - Good time for:\n" + bullets(
			"Field preparations",
			"Weeding and pruning",
			"Seed treatment and preparation",
			"Animal care activities")
	case hour >= 18 && hour < 20:
		return "🌆 **Evening (6-8 PM)** - Ideal time for:\n" + bullets(
			"Second irrigation session",
			"Harvesting leafy vegetables",
			"Organic pesticide application",
			"Planning next day's activities")
	default:
		return "🌙 **Night Time** - Rest period for farmers and crops:\n" + bullets(
			"Avoid disturbing plants",
			"Good time for planning and learning",
			"Check weather forecasts",
			"Prepare for next day's work")
	}
}

func weekdayAdvice(day time.Weekday) []string {
	switch day {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
		return []string{
			"Regular farm work and field activities",
			"Good days for heavy agricultural tasks",
			"Market visits for supplies",
		}
	case time.Friday:
		return []string{
			"Complete weekly farm tasks",
			"Plan for weekend activities",
			"Equipment cleaning and maintenance",
		}
	case time.Saturday:
		return []string{
			"Market day - sell produce",
			"Community farming activities",
			"Learn new farming techniques",
		}
	default:
		return []string{
			"Rest day for farmers",
			"Light activities like planning",
			"Farm equipment rest day",
		}
	}
}

func bullets(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("• " + l + "\n")
	}
	return b.String()
}
