package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var History = discord.SlashCommandCreate{
	Name:        "history",
	Description: "📜 Your recent transactions",
}

const historyPerPage = 10

func HistoryHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		// One fetch caps the history at a sane window; the paginator
		// slices it per page.
		txs, err := b.TransactionRepository.GetByAccount(ctx, acct.ID, 200, 0)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to fetch your history")
		}
		if len(txs) == 0 {
			return utils.EH.CreateInfoEmbed(e, "No transactions yet. Try `/daily`.")
		}

		totalPages := int(math.Ceil(float64(len(txs)) / float64(historyPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * historyPerPage
				endIdx := min(startIdx+historyPerPage, len(txs))

				var sb strings.Builder
				sb.WriteString("```\n")
				for _, tx := range txs[startIdx:endIdx] {
					sb.WriteString(fmt.Sprintf("%s %-18s %12s\n",
						tx.Timestamp.Format("01-02 15:04"),
						tx.Reason,
						utils.FormatSigned(tx.Amount)))
				}
				sb.WriteString("```")

				embed.
					SetTitle("📜 Transaction History").
					SetDescription(sb.String()).
					SetColor(0x2B2D31).
					SetFooter(fmt.Sprintf("Page %d/%d • %d transactions", page+1, totalPages, len(txs)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
