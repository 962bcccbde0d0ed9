// Package notify announces committed interviews on chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/okian/interviewsched/internal/domain/pipeline"
	"github.com/okian/interviewsched/pkg/logger"
)

var _ pipeline.Notifier = (*Slack)(nil)

// ErrNoChannel is returned when the notifier has nowhere to post.
var ErrNoChannel = errors.New("slack channel not configured")

const announceLayout = "Mon Jan 2 03:04 PM MST"

// Slack posts one message per committed interview.
type Slack struct {
	api     *slack.Client
	channel string
	log     logger.Logger
}

// SlackOption applies a configuration option to the Slack notifier.
type SlackOption func(*slackConfig)

type slackConfig struct {
	apiURL string
	log    logger.Logger
}

// WithAPIURL points the client at another Slack API root, ending in "/".
func WithAPIURL(url string) SlackOption {
	return func(c *slackConfig) {
		c.apiURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) SlackOption {
	return func(c *slackConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewSlack creates a notifier posting to channel with a bot token.
func NewSlack(token, channel string, opts ...SlackOption) *Slack {
	cfg := slackConfig{log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	var clientOpts []slack.Option
	if cfg.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(cfg.apiURL))
	}
	return &Slack{
		api:     slack.New(token, clientOpts...),
		channel: channel,
		log:     cfg.log,
	}
}

// Name implements pipeline.Notifier.
func (s *Slack) Name() string { return "slack" }

// Notify implements pipeline.Notifier.
func (s *Slack) Notify(ctx context.Context, a pipeline.Announcement) error {
	if s.channel == "" {
		return ErrNoChannel
	}
	text := summary(a)
	_, ts, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks(a, text)...),
	)
	if err != nil {
		return fmt.Errorf("post to %s: %w", s.channel, err)
	}
	s.log.Debug(ctx, "slack announcement posted",
		logger.String("channel", s.channel),
		logger.String("ts", ts),
		logger.String("interview_id", a.Interview.ID),
	)
	return nil
}

func summary(a pipeline.Announcement) string {
	rec := a.Interview
	when := rec.ScheduledAt
	if loc, err := a.Interviewer.Location(); err == nil {
		when = when.In(loc)
	}
	return fmt.Sprintf("%s interview with %s scheduled for %s (%d min), interviewer %s.",
		rec.InterviewType, rec.CandidateName, when.Format(announceLayout), rec.DurationMinutes, rec.InterviewerName)
}

func blocks(a pipeline.Announcement, text string) []slack.Block {
	out := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Interview scheduled", false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}

	var ctxLines []string
	if a.Justification != "" {
		ctxLines = append(ctxLines, a.Justification)
	}
	if a.Event != nil && a.Event.JoinLink != "" {
		ctxLines = append(ctxLines, "<"+a.Event.JoinLink+"|Join link>")
	}
	ctxLines = append(ctxLines, "Booked "+a.Interview.CreatedAt.UTC().Format(time.RFC3339))
	out = append(out, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(ctxLines, "\n"), false, false)))
	return out
}
