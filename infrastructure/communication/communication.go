package communication

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	presensi "presensi.app/presensi/presensi/core"
	"presensi.app/presensi/utils"
)

// poster is the part of *slack.Client used here.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type Slack struct {
	client  poster
	options SlackOption
	loc     *time.Location
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
	// Location formats event times; defaults to WIB.
	Location *time.Location
}

func NewSlack(token string, options SlackOption) *Slack {
	client := slack.New(token, slack.OptionHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return newSlack(client, options)
}

func newSlack(client poster, options SlackOption) *Slack {
	loc := options.Location
	if loc == nil {
		loc = utils.JakartaTZ
	}
	return &Slack{client: client, options: options, loc: loc}
}

func (s *Slack) postMessage(ctx context.Context, channelID, message string) error {
	_, _, err := s.client.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.InfoChannelID, message)
}

func (s *Slack) Error(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.ErrorChannelID, message)
}

// Notify posts an attendance transition to the info channel.
func (s *Slack) Notify(ctx context.Context, event presensi.Event) error {
	return s.Info(ctx, FormatEvent(event, s.loc))
}

func FormatEvent(event presensi.Event, loc *time.Location) string {
	name := event.UserName
	if name == "" {
		name = fmt.Sprintf("user %d", event.Session.UserID)
	}

	switch event.Kind {
	case presensi.EventCheckOut:
		msg := fmt.Sprintf(":wave: %s checked out at %s", name, event.Session.CheckOutAt.In(loc).Format("15:04"))
		if d := event.Session.Duration(); d != nil {
			msg += fmt.Sprintf(" (%s)", d.Round(time.Minute))
		}
		if l := event.Session.CheckOutLocation(); l != nil {
			msg += " from " + l.String()
		}
		return msg
	default:
		return fmt.Sprintf(":round_pushpin: %s checked in at %s from %s",
			name, event.Session.CheckInAt.In(loc).Format("15:04"), event.Session.CheckIn.String())
	}
}

var _ presensi.Notifier = (*Slack)(nil)
