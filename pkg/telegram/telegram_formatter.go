package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/pkg/utils"
)

// FormatPipelineRunResult formats an orchestrator run summary into a
// Markdown string for Telegram.
func FormatPipelineRunResult(run *dto.PipelineRunResult) string {
	var builder strings.Builder

	builder.WriteString("🗓 *Weekly Pipeline Run* 🗓\n\n")
	builder.WriteString(fmt.Sprintf("📌 *Week:* `%s`\n\n", run.WeekID))

	for _, stage := range run.Stages {
		var icon string
		switch {
		case stage.Failed > 0:
			icon = "⚠️"
		case stage.Skipped > 0 && stage.Succeeded == 0:
			icon = "⏭"
		default:
			icon = "✅"
		}
		builder.WriteString(fmt.Sprintf("%s *%s:* %d processed, %d ok, %d failed, %d skipped\n",
			icon, stage.Stage, stage.Processed, stage.Succeeded, stage.Failed, stage.Skipped))
	}

	builder.WriteString(fmt.Sprintf("\n🕒 %s\n", utils.PrettyDate(utils.TimeNowCST())))
	return builder.String()
}

// FormatWeeklyRankingForTelegram formats a week's ranking into a Markdown
// string for Telegram. Only priced picks carry a return; unpriced picks are
// listed at the bottom with their current status.
func FormatWeeklyRankingForTelegram(ranking *dto.RankingResponse) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("🏆 *Weekly Ranking %s* 🏆\n", ranking.WeekID))
	builder.WriteString(fmt.Sprintf("_%s to %s_\n\n", ranking.WeekStart, ranking.WeekEnd))

	if len(ranking.Stocks) == 0 {
		builder.WriteString("No recommendations recorded for this week.\n")
		return builder.String()
	}

	var pending []entity.Recommendation
	rank := 0
	for _, stock := range ranking.Stocks {
		if stock.Status != entity.StatusPriced || stock.PctChange == nil {
			pending = append(pending, stock)
			continue
		}
		rank++
		icon := "➖"
		if *stock.PctChange > 0 {
			icon = "📈"
		} else if *stock.PctChange < 0 {
			icon = "📉"
		}
		builder.WriteString(fmt.Sprintf("%d. %s *%s* (`%s.%s`) %+.2f%% by %s\n",
			rank, icon, stock.StockName, stock.Market, stock.Code,
			*stock.PctChange*100, stock.Recommender))
	}

	if len(pending) > 0 {
		builder.WriteString("\n⏳ *Not yet priced:*\n")
		for _, stock := range pending {
			builder.WriteString(fmt.Sprintf("  - %s by %s (%s)\n",
				stock.StockName, stock.Recommender, stock.Status))
		}
	}

	if len(ranking.Ratings) > 0 {
		builder.WriteString("\n🎖 *Recommender Ratings:*\n")
		listed := make(map[string]bool, len(ranking.Ratings))
		for _, stock := range ranking.Stocks {
			rating, ok := ranking.Ratings[stock.Recommender]
			if !ok || listed[stock.Recommender] {
				continue
			}
			listed[stock.Recommender] = true
			builder.WriteString(fmt.Sprintf("  - %s: *%s*\n", stock.Recommender, rating))
		}
	}

	return builder.String()
}

// FormatErrorAlertMessage formats a pipeline error alert.
func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
