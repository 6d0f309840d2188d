package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inboxwatch/internal/detector"
	"inboxwatch/internal/faults"
	"inboxwatch/internal/logging"
	"inboxwatch/internal/notifications"
	"inboxwatch/internal/submissions"
)

// Phase is the refresh lifecycle of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseRendered
	PhaseErrorHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseRendered:
		return "rendered"
	case PhaseErrorHalted:
		return "error_halted"
	default:
		return "unknown"
	}
}

// Source is the slice of the submission store the viewer needs.
type Source interface {
	ListAll(ctx context.Context) ([]submissions.Record, error)
	Get(ctx context.Context, id int64) (submissions.Record, error)
	MarkRead(ctx context.Context, id int64) error
}

// Alerter tells the operator about newly arrived submissions.
type Alerter interface {
	Alert(ctx context.Context, unread int) error
}

// NotifierAlerter forwards alerts to a notification service.
type NotifierAlerter struct {
	Service notifications.Service
}

// Alert implements Alerter.
func (a NotifierAlerter) Alert(ctx context.Context, unread int) error {
	if a.Service == nil {
		return nil
	}
	return a.Service.NotifyNewSubmissions(ctx, unread)
}

// FetchRequest identifies one scheduled fetch.
type FetchRequest struct {
	Seq     uint64
	Trigger detector.Trigger
}

// FetchResult carries a completed fetch back to the event loop.
type FetchResult struct {
	Request FetchRequest
	Records []submissions.Record
	Err     error
	At      time.Time
}

// Outcome reports what Apply did with a fetch result.
type Outcome struct {
	Applied  bool
	Decision detector.Decision
	Err      error
	// FollowUp is set when a reload was requested while this fetch was in
	// flight; the caller must run it next.
	FollowUp *FetchRequest
}

// Session is the viewer state machine. Begin, Apply, and View must be called
// from a single goroutine; Fetch, AttemptMarkRead, and Notify only touch the
// store and alerter and may run anywhere.
type Session struct {
	source  Source
	alerter Alerter
	logger  *slog.Logger

	state          detector.State
	phase          Phase
	pollingStopped bool
	records        []submissions.Record
	lastErr        error
	lastRefresh    time.Time
	lastDecision   detector.Decision

	inFlight bool
	seq      uint64
	pending  *detector.Trigger
}

// NewSession constructs an idle session.
func NewSession(source Source, alerter Alerter, logger *slog.Logger) *Session {
	return &Session{
		source:  source,
		alerter: alerter,
		logger:  logging.NewComponentLogger(logger, "viewer"),
	}
}

// Begin schedules a fetch for trigger. It returns false when no fetch should
// start: timer ticks are dropped while a fetch is in flight or after polling
// halted, and other triggers are coalesced into one follow-up.
func (s *Session) Begin(trigger detector.Trigger) (FetchRequest, bool) {
	if trigger == detector.TriggerTimer && s.pollingStopped {
		return FetchRequest{}, false
	}
	if s.inFlight {
		if trigger != detector.TriggerTimer {
			t := trigger
			s.pending = &t
		}
		return FetchRequest{}, false
	}
	return s.start(trigger), true
}

func (s *Session) start(trigger detector.Trigger) FetchRequest {
	s.seq++
	s.inFlight = true
	s.phase = PhaseLoading
	return FetchRequest{Seq: s.seq, Trigger: trigger}
}

// Fetch loads every record for req. It performs I/O only and leaves session
// state alone.
func (s *Session) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	records, err := s.source.ListAll(ctx)
	return FetchResult{Request: req, Records: records, Err: err, At: time.Now()}
}

// Apply folds a fetch result into the session. Presentation and detector
// state are updated together or not at all.
func (s *Session) Apply(res FetchResult) Outcome {
	if !s.inFlight || res.Request.Seq != s.seq {
		return Outcome{}
	}
	s.inFlight = false
	logger := s.logger.With(logging.String(logging.FieldTrigger, res.Request.Trigger.String()))

	out := Outcome{Applied: true}
	if res.Err != nil {
		s.phase = PhaseErrorHalted
		s.pollingStopped = true
		s.lastErr = res.Err
		out.Err = res.Err
		logging.ErrorWithContext(logger, "refresh failed; automatic polling stopped", faults.Kind(res.Err),
			logging.Error(res.Err),
			logging.String(logging.FieldErrorHint, "check the store, then reload manually"),
		)
	} else {
		next, decision := detector.Refresh(s.state, res.Records, res.Request.Trigger)
		s.records = res.Records
		s.state = next
		s.phase = PhaseRendered
		s.lastErr = nil
		s.lastRefresh = res.At
		s.lastDecision = decision
		out.Decision = decision
		logger.Debug("refresh applied",
			logging.Int("records", len(res.Records)),
			logging.Int("unread", decision.UnreadCount),
			logging.Int64("max_id", decision.MaxID),
			logging.Bool("notify", decision.Notify),
			logging.String("reason", decision.Reason),
		)
	}

	if s.pending != nil {
		trigger := *s.pending
		s.pending = nil
		req := s.start(trigger)
		out.FollowUp = &req
	}
	return out
}

// Refresh runs a complete fetch cycle synchronously. It is used by the
// headless runner and tests; the terminal UI drives Begin, Fetch, and Apply
// itself. Follow-up reloads are run before returning.
func (s *Session) Refresh(ctx context.Context, trigger detector.Trigger) (Outcome, bool) {
	req, ok := s.Begin(trigger)
	if !ok {
		return Outcome{}, false
	}
	out := s.Apply(s.Fetch(ctx, req))
	for out.FollowUp != nil {
		out = s.Apply(s.Fetch(ctx, *out.FollowUp))
	}
	return out, true
}

// Notify sends the new-submission alert described by d, if any.
func (s *Session) Notify(ctx context.Context, d detector.Decision) error {
	if !d.Notify {
		return nil
	}
	s.logger.Info("new submissions",
		logging.Int("unread", d.UnreadCount),
		logging.Int64("max_id", d.MaxID),
		logging.Alert("new_submissions"),
		logging.String(logging.FieldEventType, "new_submissions"),
	)
	if s.alerter == nil {
		return nil
	}
	if err := s.alerter.Alert(ctx, d.UnreadCount); err != nil {
		logging.WarnWithContext(s.logger, "alert delivery failed", "alert_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the on-screen indicator still shows the new count"),
		)
		return err
	}
	return nil
}

// AttemptMarkRead tries to set the read flag of rec. Callers must reload with
// detector.TriggerAcknowledge afterwards whatever the result.
func (s *Session) AttemptMarkRead(ctx context.Context, rec *submissions.Record) AckResult {
	result := s.markRead(ctx, rec)
	attrs := []logging.Attr{logging.String("result", result.String())}
	if rec != nil {
		attrs = append(attrs, logging.Int64("id", rec.ID))
	}
	s.logger.Info("acknowledge attempted", logging.Args(attrs...)...)
	return result
}

func (s *Session) markRead(ctx context.Context, rec *submissions.Record) AckResult {
	if rec == nil {
		return AckNoSelection
	}
	if rec.IsRead {
		return AckAlreadyRead
	}
	current, err := s.source.Get(ctx, rec.ID)
	switch {
	case errors.Is(err, faults.ErrNotFound):
		return AckNotFound
	case err != nil:
		s.logAckError(rec.ID, err)
		return AckSaveError
	case current.IsRead:
		return AckAlreadyRead
	}
	if err := s.source.MarkRead(ctx, rec.ID); err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			return AckNotFound
		}
		s.logAckError(rec.ID, err)
		return AckSaveError
	}
	return AckSuccess
}

func (s *Session) logAckError(id int64, err error) {
	logging.ErrorWithContext(s.logger, "acknowledge failed", faults.Kind(err),
		logging.Int64("id", id),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "retry once the store is reachable"),
	)
}

// SetReadFlag handles the operator toggling the read checkbox. Setting it
// attempts an acknowledgment; clearing it is rejected without a write.
func (s *Session) SetReadFlag(ctx context.Context, rec *submissions.Record, read bool) AckResult {
	if !read {
		if rec == nil {
			return AckNoSelection
		}
		s.logger.Info("unread toggle rejected", logging.Int64("id", rec.ID))
		return AckUnreadRejected
	}
	return s.AttemptMarkRead(ctx, rec)
}

// Acknowledge attempts to mark rec read and then reloads with
// detector.TriggerAcknowledge.
func (s *Session) Acknowledge(ctx context.Context, rec *submissions.Record) (AckResult, Outcome) {
	result := s.AttemptMarkRead(ctx, rec)
	out, _ := s.Refresh(ctx, detector.TriggerAcknowledge)
	return result, out
}

// View is a snapshot of what the viewer presents.
type View struct {
	Phase          Phase
	Records        []submissions.Record
	Unread         int
	MaxID          int64
	Indicator      string
	Title          string
	Err            error
	PollingStopped bool
	Loading        bool
	LastRefresh    time.Time
	Decision       detector.Decision
}

// HasUnread reports whether the indicator should render as pending work.
func (v View) HasUnread() bool {
	return v.Unread > 0
}

// View returns the current presentation snapshot.
func (s *Session) View() View {
	unread := submissions.CountUnread(s.records)
	title := "Inbox"
	if unread > 0 {
		title = fmt.Sprintf("Inbox (%s unread)", notifications.FormatCount(unread))
	}
	return View{
		Phase:          s.phase,
		Records:        s.records,
		Unread:         unread,
		MaxID:          submissions.MaxID(s.records),
		Indicator:      "Unread: " + notifications.FormatCount(unread),
		Title:          title,
		Err:            s.lastErr,
		PollingStopped: s.pollingStopped,
		Loading:        s.inFlight,
		LastRefresh:    s.lastRefresh,
		Decision:       s.lastDecision,
	}
}

// State returns the detector high-water marks.
func (s *Session) State() detector.State {
	return s.state
}

// PollingActive reports whether timer ticks still trigger refreshes.
func (s *Session) PollingActive() bool {
	return !s.pollingStopped
}
