package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const maxFeedRows = 200

// BetRowMsg is sent for every BetPlaced event found while polling.
type BetRowMsg struct {
	BetID     string
	Requester string
	Receiver  string
	Tier      string
	Status    string
	Amount    string // formatted, e.g. "0.1"
	Currency  string // e.g. "RON"
	BlockNum  uint64
	TxHash    string
	TxURL     string
}

// WatchStatusMsg updates the polling status bar.
type WatchStatusMsg struct {
	BlockNum uint64
	Fetching bool
	ErrMsg   string
}

// BetFeedModel is the Bubble Tea model for the live bet stream.
type BetFeedModel struct {
	Contract string
	Chain    string
	Rows     []BetRowMsg
	Status   WatchStatusMsg
	Frame    int
	Quitting bool
	cursor   int
	flash    string
}

type watchTickMsg struct{}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m BetFeedModel) Init() tea.Cmd { return watchSpinTick() }

func (m BetFeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.Rows)-1 {
				m.cursor++
			}

		case "o":
			if m.cursor < len(m.Rows) && m.Rows[m.cursor].TxURL != "" {
				if err := openBrowser(m.Rows[m.cursor].TxURL); err != nil {
					m.flash = "Could not open browser"
				} else {
					m.flash = "Opening in browser…"
				}
			}
		}

	case watchTickMsg:
		m.Frame = (m.Frame + 1) % len(spinnerFrames)
		return m, watchSpinTick()

	case BetRowMsg:
		// Newest first.
		m.Rows = append([]BetRowMsg{msg}, m.Rows...)
		if len(m.Rows) > maxFeedRows {
			m.Rows = m.Rows[:maxFeedRows]
		}

	case WatchStatusMsg:
		m.Status = msg
	}

	return m, nil
}

func (m BetFeedModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := spinnerFrames[m.Frame]

	title := fmt.Sprintf("Live Bets  ·  %s  ·  %s", TruncateAddr(m.Contract), m.Chain)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	switch {
	case m.Status.ErrMsg != "":
		sb.WriteString(StyleError.Render("✗ "+m.Status.ErrMsg) + "\n\n")
	case m.Status.Fetching:
		sb.WriteString(StyleInfo.Render(fmt.Sprintf("%s polling up to block #%d…", spin, m.Status.BlockNum)) + "\n\n")
	case m.Status.BlockNum > 0:
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  last checked: block #%d", m.Status.BlockNum)) + "\n\n")
	default:
		sb.WriteString(StyleMeta.Render("  connecting…") + "\n\n")
	}

	const (
		wID     = 8
		wAddr   = 14
		wTier   = 8
		wStatus = 9
		wAmount = 16
		wBlk    = 10
	)
	sep := StyleMeta.Render(strings.Repeat("─", wID+2*wAddr+wTier+wStatus+wAmount+wBlk+12))

	sb.WriteString(
		padR(StyleMeta.Render("BET"), wID) + "  " +
			padR(StyleMeta.Render("REQUESTER"), wAddr) + "  " +
			padR(StyleMeta.Render("RECEIVER"), wAddr) + "  " +
			padR(StyleMeta.Render("TIER"), wTier) + "  " +
			padR(StyleMeta.Render("STATUS"), wStatus) + "  " +
			padR(StyleMeta.Render("AMOUNT"), wAmount) + "  " +
			StyleMeta.Render("BLOCK") + "\n",
	)
	sb.WriteString(sep + "\n")

	if len(m.Rows) == 0 {
		sb.WriteString(StyleMeta.Render("  Waiting for bets…") + "\n")
	} else {
		for i, row := range m.Rows {
			line := padR(StyleValue.Render("#"+row.BetID), wID) + "  " +
				padR(StyleAddress.Render(TruncateAddr(row.Requester)), wAddr) + "  " +
				padR(StyleAddress.Render(TruncateAddr(row.Receiver)), wAddr) + "  " +
				padR(TierStyle(row.Tier).Render(row.Tier), wTier) + "  " +
				padR(StatusStyle(row.Status).Render(row.Status), wStatus) + "  " +
				padR(StyleValue.Render(row.Amount)+" "+StyleMeta.Render(row.Currency), wAmount) + "  " +
				StyleMeta.Render(fmt.Sprintf("#%d", row.BlockNum))

			if i == m.cursor {
				sb.WriteString(StyleSelected.Render(line) + "\n")
			} else {
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString(sep + "\n")
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d bet(s) seen", len(m.Rows))) + "\n")
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(watchControls())
	}
	sb.WriteString("\n")

	return sb.String()
}

func watchControls() string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ]"))
	sb.WriteString(StyleMeta.Render(" navigate"))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ o ]"))
	sb.WriteString(StyleMeta.Render(" open in explorer"))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ q ]"))
	sb.WriteString(StyleMeta.Render(" quit"))
	return sb.String()
}
