package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxWatchRows caps the live view.
const maxWatchRows = 200

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// watchFilters is the cycle of the f key; "" shows everything.
var watchFilters = []string{"", "Transfer", "Burn", "Pause", "Unpause", "OwnershipTransferred"}

// EventRow is one ledger event in the live view.
type EventRow struct {
	Block  uint64
	TxHash string
	Event  string
	Detail string
}

// WatchEventMsg appends one row.
type WatchEventMsg EventRow

// WatchStatusMsg updates the status bar.
type WatchStatusMsg struct {
	Height uint64
	Paused bool
	Supply string
	ErrMsg string
}

// WatchModel is the Bubble Tea model for `events watch`.
type WatchModel struct {
	Token    string // e.g. "qiibeeCoin (QBX)"
	Rows     []EventRow
	Status   WatchStatusMsg
	Filter   string
	Frame    int
	Quitting bool
	cursor   int
}

type watchTickMsg struct{}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m WatchModel) Init() tea.Cmd { return watchSpinTick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
			}

		case "f":
			m.Filter = nextFilter(m.Filter)
			m.cursor = 0
		}

	case watchTickMsg:
		m.Frame = (m.Frame + 1) % len(spinFrames)
		return m, watchSpinTick()

	case WatchEventMsg:
		// Newest first.
		m.Rows = append([]EventRow{EventRow(msg)}, m.Rows...)
		if len(m.Rows) > maxWatchRows {
			m.Rows = m.Rows[:maxWatchRows]
		}

	case WatchStatusMsg:
		m.Status = msg
	}

	return m, nil
}

// visible returns the rows passing the filter.
func (m WatchModel) visible() []EventRow {
	if m.Filter == "" {
		return m.Rows
	}
	var out []EventRow
	for _, r := range m.Rows {
		if r.Event == m.Filter {
			out = append(out, r)
		}
	}
	return out
}

func nextFilter(cur string) string {
	for i, f := range watchFilters {
		if f == cur {
			return watchFilters[(i+1)%len(watchFilters)]
		}
	}
	return ""
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := spinFrames[m.Frame]

	// ── Title ─────────────────────────────────────────────────────────────
	sb.WriteString(StyleTitle.Render("👁  Live Events  ·  "+m.Token) + "\n")

	// ── Status bar ────────────────────────────────────────────────────────
	switch {
	case m.Status.ErrMsg != "":
		sb.WriteString(StyleError.Render("✗ "+trimErr(m.Status.ErrMsg)) + "\n\n")
	case m.Status.Height > 0 || m.Status.Supply != "":
		state := StyleSuccess.Render("active")
		if m.Status.Paused {
			state = StyleWarning.Render("paused")
		}
		sb.WriteString(fmt.Sprintf("%s block #%d  ·  %s  ·  supply %s\n\n",
			StyleInfo.Render(spin), m.Status.Height, state, StyleValue.Render(m.Status.Supply)))
	default:
		sb.WriteString(StyleMeta.Render("  opening ledger…") + "\n\n")
	}

	// ── Table ─────────────────────────────────────────────────────────────
	const (
		wBlk   = 8
		wHash  = 14
		wEvent = 22
	)
	sep := StyleMeta.Render(strings.Repeat("─", wBlk+wHash+wEvent+40))

	sb.WriteString(
		padR(StyleDim.Render("BLOCK"), wBlk) + "  " +
			padR(StyleDim.Render("TX"), wHash) + "  " +
			padR(StyleDim.Render("EVENT"), wEvent) + "  " +
			StyleDim.Render("DETAIL") + "\n",
	)
	sb.WriteString(sep + "\n")

	rows := m.visible()
	if len(rows) == 0 {
		sb.WriteString(StyleMeta.Render("  Waiting for events…") + "\n")
	} else {
		for i, row := range rows {
			line := padR(StyleMeta.Render(fmt.Sprintf("#%d", row.Block)), wBlk) + "  " +
				padR(StyleAddress.Render(TruncateAddr(row.TxHash)), wHash) + "  " +
				padR(EventStyle(row.Event).Render(row.Event), wEvent) + "  " +
				row.Detail
			if i == m.cursor {
				sb.WriteString(StyleSelected.Render(line) + "\n")
			} else {
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString(sep + "\n")
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d event(s)", len(rows))) + "\n")
	}

	// ── Controls ─────────────────────────────────────────────────────────
	sb.WriteString("\n" + watchControls(m.Filter) + "\n")
	return sb.String()
}

func watchControls(filter string) string {
	if filter == "" {
		filter = "all"
	}
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ]"))
	sb.WriteString(StyleMeta.Render(" navigate"))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ f ]"))
	sb.WriteString(StyleMeta.Render(" filter: " + filter))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ q ]"))
	sb.WriteString(StyleMeta.Render(" quit"))
	return sb.String()
}
