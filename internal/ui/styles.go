package ui

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	ColorOK      = lipgloss.Color("#00D26A")
	ColorPending = lipgloss.Color("#FFB800")
	ColorFailed  = lipgloss.Color("#FF4444")
	ColorInfo    = lipgloss.Color("#4EA8DE")
	ColorAddress = lipgloss.Color("#00B4D8")
	ColorAmount  = lipgloss.Color("#FFFFFF")
	ColorMeta    = lipgloss.Color("#555555") // block numbers, batch ranges
	ColorFrame   = lipgloss.Color("#1E3A5F")
	ColorNetwork = lipgloss.Color("#2B7FFF") // Ronin blue
	ColorCursor  = lipgloss.Color("#F15BB5")

	// bet tiers
	ColorBronze  = lipgloss.Color("#CD7F32")
	ColorSilver  = lipgloss.Color("#C0C0C0")
	ColorGold    = lipgloss.Color("#FFD700")
	ColorDiamond = lipgloss.Color("#B9F2FF")
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorPending).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorFailed).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorAmount).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorCursor).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)
)

var tierStyles = map[string]lipgloss.Style{
	"Bronze":  lipgloss.NewStyle().Foreground(ColorBronze),
	"Silver":  lipgloss.NewStyle().Foreground(ColorSilver),
	"Gold":    lipgloss.NewStyle().Foreground(ColorGold).Bold(true),
	"Diamond": lipgloss.NewStyle().Foreground(ColorDiamond).Bold(true),
}

// TierStyle colours a bet tier name. Unknown tiers render as metadata.
func TierStyle(tier string) lipgloss.Style {
	if s, ok := tierStyles[tier]; ok {
		return s
	}
	return StyleMeta
}

// StatusStyle colours a bet status name.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "Pending":
		return StyleWarning
	case "Resolved":
		return StyleSuccess
	case "Canceled":
		return StyleError
	}
	return StyleMeta
}

func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }
func Warn(msg string) string    { return StyleWarning.Render("⚠ " + msg) }
func Err(msg string) string     { return StyleError.Render("✗ " + msg) }
func Info(msg string) string    { return StyleInfo.Render("ℹ " + msg) }

// Addr, Val, Meta and ChainName style a single field.
func Addr(a string) string      { return StyleAddress.Render(a) }
func Val(v string) string       { return StyleValue.Render(v) }
func Meta(m string) string      { return StyleMeta.Render(m) }
func ChainName(c string) string { return StyleChain.Render(c) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
