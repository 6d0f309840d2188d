package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inboxwatch/internal/detector"
	"inboxwatch/internal/logging"
	"inboxwatch/internal/notifications"
	"inboxwatch/internal/submissions"
	"inboxwatch/internal/textutil"
	"inboxwatch/internal/viewer"
)

const (
	defaultPollInterval = 30 * time.Second
	statusLifetime      = 5 * time.Second
	bannerLifetime      = 15 * time.Second
	timestampLayout     = "2006-01-02 15:04"
)

// Options configures a Model.
type Options struct {
	Context      context.Context
	PollInterval time.Duration
	// Bell receives a terminal bell when new submissions arrive. Nil disables
	// the bell.
	Bell   io.Writer
	Logger *slog.Logger
}

type tickMsg time.Time

type fetchedMsg viewer.FetchResult

type ackedMsg struct {
	result viewer.AckResult
	id     int64
}

type clearStatusMsg struct{ seq int }

type clearBannerMsg struct{ seq int }

type scheduler func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// Model is the bubbletea model for the inbox viewer. Fetches and store
// writes run as commands; their results are folded into the session inside
// Update, so the session is only mutated on the event loop.
type Model struct {
	ctx      context.Context
	session  *viewer.Session
	interval time.Duration
	bell     io.Writer
	logger   *slog.Logger
	schedule scheduler

	table   table.Model
	help    help.Model
	keys    KeyMap
	records []submissions.Record

	status    string
	statusErr bool
	statusSeq int
	banner    string
	bannerSeq int

	width  int
	height int
}

// New builds a viewer model around session.
func New(session *viewer.Session, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62"))
	t.SetStyles(styles)

	return Model{
		ctx:      ctx,
		session:  session,
		interval: interval,
		bell:     opts.Bell,
		logger:   logging.NewComponentLogger(logger, "tui"),
		schedule: tea.Tick,
		table:    t,
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
}

func columns(width int) []table.Column {
	fixed := 4 + 6 + 17 + 20 + 26
	message := width - fixed - 12
	if message < 20 {
		message = 20
	}
	return []table.Column{
		{Title: "Read", Width: 4},
		{Title: "ID", Width: 6},
		{Title: "Received", Width: 17},
		{Title: "Name", Width: 20},
		{Title: "Email", Width: 26},
		{Title: "Message", Width: message},
	}
}

// Init loads the inbox and starts the poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.begin(detector.TriggerInitial), m.tick())
}

func (m Model) tick() tea.Cmd {
	return m.schedule(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) begin(trigger detector.Trigger) tea.Cmd {
	req, ok := m.session.Begin(trigger)
	if !ok {
		return nil
	}
	return m.fetch(req)
}

func (m Model) fetch(req viewer.FetchRequest) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return fetchedMsg(session.Fetch(ctx, req))
	}
}

func (m Model) acknowledge(rec submissions.Record) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return ackedMsg{result: session.AttemptMarkRead(ctx, &rec), id: rec.ID}
	}
}

func (m Model) notify(d detector.Decision) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		_ = session.Notify(ctx, d)
		return nil
	}
}

func (m Model) ring() tea.Cmd {
	if m.bell == nil {
		return nil
	}
	w := m.bell
	return func() tea.Msg {
		_, _ = io.WriteString(w, "\a")
		return nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 12; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tickMsg:
		if !m.session.PollingActive() {
			return m, nil
		}
		return m, tea.Batch(m.begin(detector.TriggerTimer), m.tick())

	case fetchedMsg:
		return m.applyFetch(viewer.FetchResult(msg))

	case ackedMsg:
		cmd := m.setStatus(msg.result.Message(), msg.result == viewer.AckSaveError || msg.result == viewer.AckNotFound)
		return m, tea.Batch(cmd, m.begin(detector.TriggerAcknowledge))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case clearBannerMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) applyFetch(res viewer.FetchResult) (tea.Model, tea.Cmd) {
	out := m.session.Apply(res)
	if !out.Applied {
		return m, nil
	}
	var cmds []tea.Cmd
	if out.FollowUp != nil {
		cmds = append(cmds, m.fetch(*out.FollowUp))
	}
	if out.Err != nil {
		cmds = append(cmds, m.setStatus("Refresh failed: "+out.Err.Error(), true))
		return m, tea.Batch(cmds...)
	}

	m.syncRows()
	view := m.session.View()
	cmds = append(cmds, tea.SetWindowTitle(view.Title))
	if out.Decision.Notify {
		m.bannerSeq++
		seq := m.bannerSeq
		m.banner = fmt.Sprintf("New submission received (%s unread)", notifications.FormatCount(out.Decision.UnreadCount))
		cmds = append(cmds,
			m.notify(out.Decision),
			m.ring(),
			m.schedule(bannerLifetime, func(time.Time) tea.Msg { return clearBannerMsg{seq: seq} }),
		)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) syncRows() {
	view := m.session.View()
	m.records = view.Records
	rows := make([]table.Row, 0, len(view.Records))
	for _, rec := range view.Records {
		rows = append(rows, recordRow(rec))
	}
	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

func recordRow(rec submissions.Record) table.Row {
	read := "[ ]"
	if rec.IsRead {
		read = "[x]"
	}
	received := ""
	if !rec.Timestamp.IsZero() {
		received = rec.Timestamp.Local().Format(timestampLayout)
	}
	return table.Row{
		read,
		strconv.FormatInt(rec.ID, 10),
		received,
		textutil.SingleLine(rec.Name),
		textutil.SingleLine(rec.Email),
		textutil.SingleLine(rec.Message),
	}
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	m.status = text
	m.statusErr = isErr
	return m.schedule(statusLifetime, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (m Model) selected() (submissions.Record, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return submissions.Record{}, false
	}
	return m.records[idx], true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Reload):
		m.logger.Debug("manual reload requested")
		status := m.setStatus("Reloading...", false)
		return m, tea.Batch(m.begin(detector.TriggerManual), status)

	case key.Matches(msg, m.keys.MarkRead):
		rec, ok := m.selected()
		if !ok {
			status := m.setStatus(viewer.AckNoSelection.Message(), false)
			return m, status
		}
		return m, m.acknowledge(rec)

	case key.Matches(msg, m.keys.Toggle):
		rec, ok := m.selected()
		if !ok {
			status := m.setStatus(viewer.AckNoSelection.Message(), false)
			return m, status
		}
		if rec.IsRead {
			result := m.session.SetReadFlag(m.ctx, &rec, false)
			status := m.setStatus(result.Message(), false)
			return m, tea.Batch(status, m.begin(detector.TriggerAcknowledge))
		}
		return m, m.acknowledge(rec)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	view := m.session.View()
	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(view.Title),
		" ",
		indicatorStyle(view.Unread).Render(view.Indicator),
	)
	if view.Loading {
		header += mutedStyle.Render("  loading...")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if m.banner != "" {
		b.WriteString(bannerStyle.Render(m.banner))
		b.WriteString("\n")
	}
	if view.PollingStopped {
		line := "Automatic refresh stopped after an error. Press r to reload."
		if view.Err != nil {
			line = "Refresh failed: " + view.Err.Error() + ". Automatic refresh stopped; press r to reload."
		}
		b.WriteString(errorStyle.Render(m.fit(line)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(view.Records) == 0 && view.Phase == viewer.PhaseRendered {
		b.WriteString(mutedStyle.Render("No submissions."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if rec, ok := m.selected(); ok {
		b.WriteString(m.detail(rec))
		b.WriteString("\n")
	}

	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.fit(m.status)))
		b.WriteString("\n")
	}
	if !view.LastRefresh.IsZero() {
		b.WriteString(mutedStyle.Render("Last refresh " + view.LastRefresh.Format("15:04:05")))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// fit keeps single-line messages inside the terminal width.
func (m Model) fit(line string) string {
	if m.width <= 0 {
		return line
	}
	return textutil.Truncate(textutil.SingleLine(line), m.width)
}

func (m Model) detail(rec submissions.Record) string {
	from := textutil.SingleLine(rec.Name)
	if email := textutil.SingleLine(rec.Email); email != "" {
		from = fmt.Sprintf("%s <%s>", from, email)
	}
	body := fmt.Sprintf("From: %s\n\n%s", from, textutil.Clean(rec.Message))
	style := detailBorder
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(body)
}
