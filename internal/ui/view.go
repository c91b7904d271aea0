package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/vocalrange/internal/pitch"
	"github.com/0xlemi/vocalrange/internal/session"
)

const (
	// Needle deflection is clamped so the marker never leaves the scale.
	maxNeedleCents = 45.0
	needleWidth    = 41
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	accentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#818CF8"))

	inTuneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#34D399"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FB7185")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9F1239")).
			Padding(0, 1).
			MarginBottom(1)

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Get the next note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	case "B":
		return "C"
	default:
		return "C"
	}
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("VocalRange - Find Your True Voice"))
	b.WriteString("\n")

	switch m.screen {
	case ScreenWelcome:
		m.viewWelcome(&b)
	case ScreenPermissionDenied:
		m.viewPermissionDenied(&b)
	case ScreenDetecting:
		m.viewDetecting(&b)
	case ScreenAnalyzing:
		m.viewAnalyzing(&b)
	case ScreenResults:
		m.viewResults(&b)
	}
	return b.String()
}

func (m Model) viewWelcome(b *strings.Builder) {
	b.WriteString(infoStyle.Render("Discover your vocal range, find out if you're a Tenor, Baritone or Soprano,\nand get personalized song suggestions."))
	b.WriteString("\n\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
		b.WriteString("\n")
	}
	b.WriteString(accentStyle.Render("Press enter to start the vocal test"))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("Requires microphone access. Works best in a quiet room.  q quit"))
}

func (m Model) viewPermissionDenied(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Microphone Access Needed"))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render("We need access to your microphone to analyze your pitch.\nCheck that an input device is connected and not in use, then try again."))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("enter retry • esc back • q quit"))
}

func (m Model) viewDetecting(b *strings.Builder) {
	if m.session.State() == session.AwaitingHigh {
		b.WriteString(headingStyle.Render("Step 2 of 2: Sing Your Highest Note"))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(`Sing "Ahhh" and go up the scale. Stop before you strain or switch to falsetto.`))
	} else {
		b.WriteString(headingStyle.Render("Step 1 of 2: Sing Your Lowest Note"))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(`Relax your throat and hum or sing "Ahhh" as low as you comfortably can.`))
	}
	b.WriteString("\n\n")

	if m.live != nil {
		b.WriteString(noteBlock(m.live))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Frequency: %.0f Hz | Cents: %+.1f", m.live.Frequency, m.live.Cents)))
		b.WriteString("\n")
		b.WriteString(needle(m.live.Cents, needleWidth))
		if m.live.InTune() {
			b.WriteString("  " + inTuneStyle.Render("in tune"))
		}
	} else {
		b.WriteString(infoStyle.Render("Listening for audio..."))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("Level: %.0f dB", m.level)))
	b.WriteString("\n\n")

	if first := m.session.First(); first != nil {
		b.WriteString(infoStyle.Render("Captured low note: ") + accentStyle.Render(first.FullName()))
		b.WriteString("\n\n")
	}

	action := "space capture"
	if m.live == nil {
		action = "sing to enable capture"
	}
	b.WriteString(hintStyle.Render(action + " • r reset • q quit"))
}

func (m Model) viewAnalyzing(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Analyzing your range..."))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s to %s. Consulting the vocal coach to build your profile.", m.low, m.high)))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("r cancel • q quit"))
}

func (m Model) viewResults(b *strings.Builder) {
	r := m.report
	b.WriteString(infoStyle.Render("Your voice type is"))
	b.WriteString("\n")
	b.WriteString(accentStyle.Render(r.VoiceType))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Range: %s to %s", m.low, m.high)))
	b.WriteString("\n\n")
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n\n")
	}

	if len(r.Songs) > 0 {
		b.WriteString(headingStyle.Render("Songs for your range"))
		b.WriteString("\n")
		for i, s := range r.Songs {
			fmt.Fprintf(b, "%d. %s", i+1, s.Title)
			if s.Artist != "" {
				fmt.Fprintf(b, " (%s)", s.Artist)
			}
			b.WriteString("\n")
			if s.Reason != "" {
				b.WriteString("   " + hintStyle.Render(s.Reason) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(r.Exercises) > 0 {
		b.WriteString(headingStyle.Render("Exercises"))
		b.WriteString("\n")
		for _, e := range r.Exercises {
			b.WriteString("• " + e.Name + "\n")
			if e.Instructions != "" {
				b.WriteString("   " + hintStyle.Render(e.Instructions) + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("r test again • q quit"))
}

// noteBlock renders the note as a coloured block. Sharps are split between
// the colours of the natural note and the one above it.
func noteBlock(n *pitch.Note) string {
	text := n.FullName()
	if !strings.HasSuffix(n.Name, "#") {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(noteColors[n.Name])).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(2, 4).
			MarginBottom(1).
			Render(text)
	}

	baseNote := n.Name[:1]
	leftStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[baseNote])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(true).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(2).
		PaddingBottom(2)

	rightStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[getNextNote(baseNote)])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(false).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(true).
		PaddingLeft(1).
		PaddingRight(2).
		PaddingTop(2).
		PaddingBottom(2)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftStyle.Render(baseNote), rightStyle.Render(text[1:]))
}

// needle draws a tuner scale from -50 to +50 cents with a marker at cents.
func needle(cents float64, width int) string {
	if width < 3 {
		width = 3
	}
	if math.IsNaN(cents) {
		cents = 0
	}
	cents = math.Max(-maxNeedleCents, math.Min(maxNeedleCents, cents))

	scale := []rune(strings.Repeat("─", width))
	mid := width / 2
	scale[mid] = '┼'
	pos := int(math.Round((cents + 50) / 100 * float64(width-1)))
	scale[pos] = '▲'
	return "♭ " + string(scale) + " ♯"
}
