package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tagger/internal/diag"
	"github.com/five82/tagger/internal/state"
)

// renderMain renders the header, the three panes and the footer.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	widths := paneWidths(m.width)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneProjects, "Projects", m.projectLines(), widths[0], bodyHeight),
		m.renderPane(paneImages, m.imagesTitle(), m.imageLines(), widths[1], bodyHeight),
		m.renderPane(paneTags, m.tagsTitle(), m.tagLines(), widths[2], bodyHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func paneWidths(total int) [3]int {
	side := total / 4
	if side < 16 {
		side = 16
	}
	return [3]int{side, side, max(total-2*side, 16)}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{
		styles.AccentText.Bold(true).Render("tagger"),
		styles.StatusStyle(m.appState.String()).Render(m.appState.String()),
	}
	if m.project != nil {
		parts = append(parts,
			styles.Text.Render(m.project.Name),
			styles.StatusStyle(m.project.State.String()).Render(m.project.State.String()))
	}
	if m.image != nil {
		parts = append(parts,
			styles.Text.Render(m.image.Name),
			styles.StatusStyle(m.image.State.String()).Render(m.image.State.String()))
		if m.image.Dirty {
			parts = append(parts, styles.StatusStyle("dirty").Render("unsaved"))
		}
		if m.image.AutoTag != "" && m.image.AutoTag != "idle" {
			parts = append(parts, styles.StatusStyle(string(m.image.AutoTag)).Render("suggest "+string(m.image.AutoTag)))
		}
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, " "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var lines []string

	if m.image != nil {
		caption := m.image.TxtFile
		if caption == "" {
			caption = "(no tags)"
		}
		lines = append(lines, styles.MutedText.Render("txt: ")+styles.Text.Render(caption))
		if len(m.image.UncategorizedTags) > 0 {
			lines = append(lines, styles.WarningText.Render("uncategorized: "+strings.Join(m.image.UncategorizedTags, ", ")))
		}
	}
	if hint := m.errorHint(); hint != "" {
		lines = append(lines, styles.DangerText.Render(hint))
	}
	if m.notice != "" {
		lines = append(lines, styles.DangerText.Render(m.notice))
	}
	if m.adding {
		lines = append(lines, m.input.View())
	}
	lines = append(lines, m.help.View(m.keys))
	return styles.Footer.Width(m.width).Render(strings.Join(lines, "\n"))
}

// errorHint names the innermost container in an error state.
func (m Model) errorHint() string {
	switch {
	case m.image != nil && m.image.State.IsError():
		return fmt.Sprintf("%s: %s, press r to retry", m.image.Name, describeError(m.image.State))
	case m.project != nil && m.project.State.IsError():
		return fmt.Sprintf("%s: %s, press r to retry", m.project.Name, describeError(m.project.State))
	case m.appState.IsError():
		return fmt.Sprintf("projects: %s, press r to retry", describeError(m.appState))
	}
	return ""
}

func describeError(s state.Status) string {
	if s == state.ErrorSaving {
		return "save failed"
	}
	return "load failed"
}

func (m Model) renderPane(p pane, title string, lines []string, width, height int) string {
	styles := m.theme.Styles()
	style := styles.Pane
	if m.focus == p {
		style = styles.FocusedPane
	}

	inner := width - style.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}
	rows := height - style.GetVerticalFrameSize() - 1
	if rows < 1 {
		rows = 1
	}

	cursor := m.cursors[p]
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(truncate(title, inner)))
	for i := start; i < len(lines) && i < start+rows; i++ {
		b.WriteString("\n")
		line := truncate(lines[i], inner)
		if i == cursor && m.focus == p {
			line = styles.Selected.Width(inner).Render(line)
		}
		b.WriteString(line)
	}
	if len(lines) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("(empty)"))
	}

	return style.
		Width(width - style.GetHorizontalBorderSize()).
		Height(height - style.GetVerticalBorderSize()).
		Render(b.String())
}

func (m Model) projectLines() []string {
	return m.projects
}

func (m Model) imagesTitle() string {
	if m.project == nil {
		return "Images"
	}
	return fmt.Sprintf("Images (%d)", len(m.project.Images))
}

func (m Model) imageLines() []string {
	images := m.images()
	lines := make([]string, len(images))
	for i, name := range images {
		marker := "  "
		if m.image != nil && m.image.Name == name {
			marker = "> "
		}
		lines[i] = marker + name
	}
	return lines
}

func (m Model) tagsTitle() string {
	if m.image == nil {
		return "Tags"
	}
	return "Tags: " + m.image.Name
}

func (m Model) tagLines() []string {
	rows := m.tagRows()
	lines := make([]string, len(rows))
	for i, row := range rows {
		if row.suggestion {
			lines[i] = fmt.Sprintf("? %s (%.0f%%)", row.tag, row.confidence*100)
			continue
		}
		lines[i] = "- " + row.tag
	}
	return lines
}

// renderLogs renders the warnings overlay.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Warnings and errors")
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(0, 1)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		modal.Render(title+"\n"+m.logViewport.View()))
}

func (m Model) renderLogLines(lines []string) string {
	styles := m.theme.Styles()
	if len(lines) == 0 {
		return styles.FaintText.Render("No warnings.")
	}
	out := make([]string, len(lines))
	style := styles.MutedText
	for i, line := range lines {
		switch diag.LineSeverity(line) {
		case diag.SeverityWarning:
			style = styles.WarningText
		case diag.SeverityError, diag.SeverityFatal:
			style = styles.DangerText
		case diag.SeverityInfo:
			style = styles.MutedText
		}
		out[i] = style.Render(line)
	}
	return strings.Join(out, "\n")
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) <= 1 {
		return string(r[:min(len(r), width)])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
