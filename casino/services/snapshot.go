package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/disgoorg/casino-template/casino/economy/stats"
)

// SnapshotService renders a leaderboard page into a PNG by loading a
// small HTML template in headless Chrome and screenshotting it.
type SnapshotService struct {
	logger *slog.Logger
	tmpl   *template.Template
}

type snapshotRow struct {
	Rank    int
	Name    string
	Balance string
}

type snapshotData struct {
	Title     string
	Timestamp string
	Rows      []snapshotRow
}

const snapshotTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
body { margin: 0; background: transparent; font-family: 'Segoe UI', sans-serif; }
#board { width: 460px; background: linear-gradient(160deg, %231a1c22 0%, %230d3320 100%); border-radius: 12px; padding: 20px; color: %23e8e8e8; }
h1 { font-size: 20px; margin: 0 0 4px 0; color: %23f5c842; }
.stamp { font-size: 11px; color: %23888; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
td { padding: 6px 8px; font-size: 14px; border-bottom: 1px solid %232a2d35; }
td.rank { width: 36px; color: %23f5c842; font-weight: bold; }
td.balance { text-align: right; font-variant-numeric: tabular-nums; }
tr:first-child td { font-size: 16px; }
</style>
</head>
<body>
<div id="board">
<h1>{{.Title}}</h1>
<div class="stamp">{{.Timestamp}}</div>
<table>
{{range .Rows}}<tr><td class="rank">#{{.Rank}}</td><td>{{.Name}}</td><td class="balance">{{.Balance}}</td></tr>
{{end}}</table>
</div>
</body>
</html>`

func NewSnapshotService() *SnapshotService {
	service := &SnapshotService{
		logger: slog.With(slog.String("service", "snapshot")),
		tmpl:   template.Must(template.New("snapshot").Parse(snapshotTemplate)),
	}
	service.testChromedpAvailability()
	return service
}

func (s *SnapshotService) testChromedpAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>test</body></html>"))
	if err != nil {
		s.logger.Error("chromedp not available - snapshot generation will fail",
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("chromedp is available and working")
	}
}

// RenderLeaderboard screenshots a formatted leaderboard page.
func (s *SnapshotService) RenderLeaderboard(ctx context.Context, title string, entries []stats.LeaderboardEntry, formatBalance func(int64) string) ([]byte, error) {
	start := time.Now()
	if len(entries) == 0 {
		return nil, fmt.Errorf("no leaderboard entries provided")
	}

	data := snapshotData{
		Title:     title,
		Timestamp: time.Now().Format("2006-01-02 15:04 MST"),
	}
	for _, e := range entries {
		data.Rows = append(data.Rows, snapshotRow{
			Rank:    e.Rank,
			Name:    e.Account.DisplayName,
			Balance: formatBalance(e.Account.Balance),
		})
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	htmlContent := strings.ReplaceAll(buf.String(), "\n", "")

	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+htmlContent),
		chromedp.WaitVisible("#board", chromedp.ByID),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Screenshot("#board", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		s.logger.Error("Failed to generate snapshot",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate snapshot: %w", err)
	}

	s.logger.Info("Leaderboard snapshot generated",
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("elapsed", time.Since(start)))
	return imageBytes, nil
}
