package telegram

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"

	defaultPollTimeout = 10 * time.Second
)

// allowedUpdates lists the update kinds the bot handles. Inline queries
// must be requested explicitly once a webhook was registered without them.
var allowedUpdates = []string{"message", "edited_message", "callback_query", "inline_query"}

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

func (o PollerOptions) webhook() bool {
	return strings.EqualFold(strings.TrimSpace(o.RunMode), RunModeWebhook)
}

func (o PollerOptions) pollTimeout() time.Duration {
	if o.LongPollTimeoutSeconds <= 0 {
		return defaultPollTimeout
	}
	return time.Duration(o.LongPollTimeoutSeconds) * time.Second
}

// headerTimeout is how long the HTTP client waits for getUpdates to answer.
func (o PollerOptions) headerTimeout() time.Duration {
	if o.webhook() {
		return 0
	}
	return o.pollTimeout() + 5*time.Second
}

// BuildPoller returns a webhook or long poller depending on the run mode.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.webhook() {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
			AllowedUpdates: allowedUpdates,
		}
	}
	return &tele.LongPoller{Timeout: opts.pollTimeout(), AllowedUpdates: allowedUpdates}
}
