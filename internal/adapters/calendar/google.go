// Package calendar talks to Google Calendar for free/busy lookups and
// interview invitations.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/okian/interviewsched/internal/domain/availability"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/internal/domain/pipeline"
	"github.com/okian/interviewsched/pkg/logger"
)

var (
	_ availability.Calendar = (*Google)(nil)
	_ pipeline.EventCreator = (*Google)(nil)
)

// Sentinel kinds for calendar errors.
var (
	ErrQuery  = errors.New("calendar free/busy query failed")
	ErrCreate = errors.New("calendar event creation failed")
)

const (
	defaultOrganizer = "primary"
	meetSolution     = "hangoutsMeet"
)

// Google is a Google Calendar client.
type Google struct {
	svc        *gcal.Service
	organizer  string
	meetLinks  bool
	clientOpts []option.ClientOption
	log        logger.Logger
}

// Option applies a configuration option to the Google client.
type Option func(*Google)

// WithCredentialsFile authenticates with a service-account or OAuth
// credentials file.
func WithCredentialsFile(path string) Option {
	return func(g *Google) {
		if path != "" {
			g.clientOpts = append(g.clientOpts, option.WithCredentialsFile(path))
		}
	}
}

// WithClientOptions passes raw client options, such as a custom endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(g *Google) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

// WithOrganizer sets the calendar new events are created on.
func WithOrganizer(calendarID string) Option {
	return func(g *Google) {
		if calendarID != "" {
			g.organizer = calendarID
		}
	}
}

// WithMeetLinks requests a video conference link on every event.
func WithMeetLinks(enabled bool) Option {
	return func(g *Google) {
		g.meetLinks = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Google) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGoogle builds a client. It does not contact the API.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	g := &Google{
		organizer: defaultOrganizer,
		meetLinks: true,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := append([]option.ClientOption{option.WithScopes(gcal.CalendarScope)}, g.clientOpts...)
	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	g.svc = svc
	return g, nil
}

// QueryFreeBusy returns busy intervals per calendar id. A calendar the API
// reports errors for fails the whole query.
func (g *Google) QueryFreeBusy(ctx context.Context, calendarIDs []string, start, end time.Time) (map[string][]model.Interval, error) {
	items := make([]*gcal.FreeBusyRequestItem, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, &gcal.FreeBusyRequestItem{Id: id})
	}
	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	out := make(map[string][]model.Interval, len(calendarIDs))
	for _, id := range calendarIDs {
		cal, ok := resp.Calendars[id]
		if !ok {
			return nil, fmt.Errorf("%w: calendar %s missing from response", ErrQuery, id)
		}
		if len(cal.Errors) > 0 {
			reasons := make([]string, 0, len(cal.Errors))
			for _, e := range cal.Errors {
				reasons = append(reasons, e.Reason)
			}
			return nil, fmt.Errorf("%w: calendar %s: %s", ErrQuery, id, strings.Join(reasons, ","))
		}
		busy := make([]model.Interval, 0, len(cal.Busy))
		for _, p := range cal.Busy {
			iv, err := parsePeriod(p)
			if err != nil {
				return nil, fmt.Errorf("%w: calendar %s: %v", ErrQuery, id, err)
			}
			busy = append(busy, iv)
		}
		out[id] = busy
	}
	g.log.Debug(ctx, "free/busy fetched",
		logger.Strings("calendars", calendarIDs),
		logger.Time("start", start),
		logger.Time("end", end),
	)
	return out, nil
}

// CreateEvent books ev on the organizer calendar and invites the attendees.
func (g *Google) CreateEvent(ctx context.Context, ev pipeline.Event) (model.CalendarEvent, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(ev.Attendees))
	for _, email := range ev.Attendees {
		if email != "" {
			attendees = append(attendees, &gcal.EventAttendee{Email: email})
		}
	}
	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		Attendees:   attendees,
	}

	call := g.svc.Events.Insert(g.organizer, body).SendUpdates("all")
	if g.meetLinks {
		body.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: meetSolution},
			},
		}
		call = call.ConferenceDataVersion(1)
	}
	created, err := call.Context(ctx).Do()
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	out := model.CalendarEvent{
		EventID:          created.Id,
		JoinLink:         joinLink(created),
		AttendeeStatuses: make(map[string]string, len(created.Attendees)),
	}
	for _, a := range created.Attendees {
		out.AttendeeStatuses[a.Email] = a.ResponseStatus
	}
	g.log.Info(ctx, "calendar event created",
		logger.String("event_id", out.EventID),
		logger.String("organizer", g.organizer),
	)
	return out, nil
}

func joinLink(ev *gcal.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return ""
}

func parsePeriod(p *gcal.TimePeriod) (model.Interval, error) {
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		return model.Interval{}, fmt.Errorf("busy start %q: %w", p.Start, err)
	}
	end, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		return model.Interval{}, fmt.Errorf("busy end %q: %w", p.End, err)
	}
	return model.Interval{Start: start, End: end}, nil
}
