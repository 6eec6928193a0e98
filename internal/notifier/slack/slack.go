package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-duels/internal/ledger"
	"github.com/mauv0809/chess-duels/internal/metrics"
	"github.com/mauv0809/chess-duels/internal/notifier"
	"github.com/slack-go/slack"
)

// maxResultLines keeps a single announcement well under Slack's block text limit.
const maxResultLines = 25

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// SendDuelResults announces newly folded games. An empty batch sends nothing.
func (s *Notifier) SendDuelResults(results []notifier.DuelResult, dryRun bool) error {
	if len(results) == 0 {
		return nil
	}
	msg := s.formatDuelResults(results)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// SendStandings posts the head-to-head score of every pair that has played.
func (s *Notifier) SendStandings(matrix ledger.Matrix, dryRun bool) error {
	msg := s.formatStandings(matrix)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// formatDuelResults creates the Slack message for a batch of finished games using Block Kit.
func (s *Notifier) formatDuelResults(results []notifier.DuelResult) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "♟️ New duel results ♟️", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	sorted := make([]notifier.DuelResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PlayedAt.Before(sorted[j].PlayedAt) })

	shown := sorted
	if len(shown) > maxResultLines {
		shown = shown[len(shown)-maxResultLines:]
	}
	lines := make([]string, 0, len(shown))
	for _, r := range shown {
		lines = append(lines, "• "+describeResult(r))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	contextText := fmt.Sprintf("%d new game(s)", len(results))
	if hidden := len(sorted) - len(shown); hidden > 0 {
		contextText = fmt.Sprintf("%d new game(s), %d older not shown", len(results), hidden)
	}
	if last := sorted[len(sorted)-1].PlayedAt; !last.IsZero() {
		contextText += " · latest " + formatTime(last)
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

func describeResult(r notifier.DuelResult) string {
	switch r.Winner {
	case ledger.WinnerWhite:
		return fmt.Sprintf("%s beat %s with white", r.White, r.Black)
	case ledger.WinnerBlack:
		return fmt.Sprintf("%s beat %s with black", r.Black, r.White)
	default:
		return fmt.Sprintf("%s and %s drew", r.White, r.Black)
	}
}

type standingsLine struct {
	a, b   string
	cell   *ledger.Cell
	played int
}

// formatStandings creates a Slack message listing every pair with at least one game,
// most active pairs first.
func (s *Notifier) formatStandings(matrix ledger.Matrix) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Duels standings 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var pairs []standingsLine
	for i, a := range matrix.Names {
		for _, b := range matrix.Names[i+1:] {
			cell := matrix.Cells[a][b]
			if cell == nil || cell.Games == 0 {
				continue
			}
			pairs = append(pairs, standingsLine{a: a, b: b, cell: cell, played: cell.Games})
		}
	}

	if len(pairs) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No duels played yet. Go play some games!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].played > pairs[j].played })

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		line := fmt.Sprintf("%s %d – %d %s", p.a, p.cell.W, p.cell.L, p.b)
		if p.cell.D > 0 {
			line += fmt.Sprintf(" (%d draws)", p.cell.D)
		}
		lines = append(lines, line)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	if matrix.UpdatedAt != nil {
		updated := "Last synced " + formatTime(*matrix.UpdatedAt)
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", updated, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

func formatTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		return t.UTC().Format("Mon 02 Jan, 15:04 MST")
	}
	return t.In(loc).Format("Mon 02 Jan, 15:04")
}
