// Package notify delivers escalation alerts to the security team's Slack
// channel. Delivery is best effort: a Slack outage must never fail or slow
// down an incident submission.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/utils"
	"github.com/slack-go/slack"
)

// messagePoster is the slice of the Slack client the notifier uses.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts incident alerts with the workspace bot token from the
// Slack settings record. Settings can be reloaded at runtime after an admin
// updates them.
type SlackNotifier struct {
	mu      sync.RWMutex
	poster  messagePoster
	channel string
	enabled bool

	// postTimeout bounds each delivery attempt.
	postTimeout time.Duration
}

// NewSlackNotifier builds a notifier from the stored Slack settings. A
// missing or disabled configuration yields an inert notifier.
func NewSlackNotifier() *SlackNotifier {
	n := &SlackNotifier{postTimeout: 10 * time.Second}
	n.Reload()
	return n
}

// Reload re-reads the Slack settings record and swaps the client.
func (n *SlackNotifier) Reload() {
	settings, err := database.GetSlackSettings()
	if err != nil {
		log.Printf("SlackNotifier: could not load Slack settings: %v", err)
		n.disable()
		return
	}
	if !settings.IsActive() {
		log.Printf("SlackNotifier: Slack alerts disabled")
		n.disable()
		return
	}

	n.mu.Lock()
	n.poster = slack.New(settings.BotToken)
	n.channel = settings.Channel
	n.enabled = true
	n.mu.Unlock()
	log.Printf("SlackNotifier: Slack alerts active on channel %s", settings.Channel)
}

func (n *SlackNotifier) disable() {
	n.mu.Lock()
	n.poster = nil
	n.enabled = false
	n.mu.Unlock()
}

// Enabled reports whether alerts are currently being delivered.
func (n *SlackNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// NotifyEscalation posts an alert for an incident whose priority crossed
// the escalation threshold. Posting happens in the background.
func (n *SlackNotifier) NotifyEscalation(incident database.Incident) {
	go n.post(escalationMessage(incident))
}

// NotifyStale posts a digest of incidents that have sat in reported state
// past the stale threshold.
func (n *SlackNotifier) NotifyStale(incidents []database.Incident, now time.Time) {
	if len(incidents) == 0 {
		return
	}
	go n.post(staleMessage(incidents, now))
}

func (n *SlackNotifier) post(text string) {
	n.mu.RLock()
	poster := n.poster
	channel := n.channel
	enabled := n.enabled
	timeout := n.postTimeout
	n.mu.RUnlock()

	if !enabled || poster == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, _, err := poster.PostMessageContext(ctx, channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		log.Printf("SlackNotifier: failed to post alert: %v", err)
	}
}

func escalationMessage(incident database.Incident) string {
	return fmt.Sprintf(":rotating_light: *Corroborated incident at %s*\nType: %s | Priority: %d | Reports: %d\n> %s\nIncident ID: %s",
		incident.Location,
		incident.Type,
		incident.Priority,
		incident.DuplicateCount,
		utils.TruncateText(incident.Description, 200),
		incident.UUID,
	)
}

func staleMessage(incidents []database.Incident, now time.Time) string {
	text := fmt.Sprintf(":hourglass: *%d incident(s) still unattended*\n", len(incidents))
	for _, inc := range incidents {
		text += fmt.Sprintf("• %s at %s (%s): %s\n",
			inc.Type,
			inc.Location,
			utils.TimeAgo(inc.ReportedAt, now),
			utils.TruncateText(inc.Description, 80),
		)
	}
	return text
}
