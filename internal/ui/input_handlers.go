package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/five82/tagger/internal/prefs"
	"github.com/five82/tagger/internal/tagging"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.adding {
		return m.handleAddKey(msg)
	}
	if m.showLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			name := m.theme.Name
			if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
				glog.Warningf("[ui]save theme: %v", err)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		return m, m.loadLogsCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadProjectsCmd(true)

	case key.Matches(msg, m.keys.Retry):
		return m, m.retryCmd()

	case key.Matches(msg, m.keys.Back):
		if m.app.CurrentProject() != nil {
			m.app.CloseProject()
			m.focus = paneProjects
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursors[m.focus] = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursors[m.focus] = max(m.paneLen(m.focus)-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m.handleOpen()

	case key.Matches(msg, m.keys.AddTag):
		if m.currentImage() == nil {
			return m, nil
		}
		m.adding = true
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.RemoveTag):
		m.removeSelectedTag()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m, m.saveTagsCmd()

	case key.Matches(msg, m.keys.AutoTag):
		return m, m.autoTagCmd()
	}
	return m, nil
}

func (m Model) handleOpen() (tea.Model, tea.Cmd) {
	switch m.focus {
	case paneProjects:
		if len(m.projects) == 0 {
			return m, nil
		}
		return m, m.openProjectCmd(m.projects[m.cursors[paneProjects]])
	case paneImages:
		images := m.images()
		if len(images) == 0 {
			return m, nil
		}
		return m, m.selectImageCmd(images[m.cursors[paneImages]])
	case paneTags:
		rows := m.tagRows()
		if len(rows) == 0 {
			return m, nil
		}
		row := rows[m.cursors[paneTags]]
		if img := m.currentImage(); img != nil && row.suggestion {
			img.AcceptSuggestion(row.tag)
		}
	}
	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.adding = false
		m.input.Blur()
		tag := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if img := m.currentImage(); img != nil && tag != "" {
			img.AddTag(tag)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Logs):
		m.showLogs = false
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m *Model) removeSelectedTag() {
	img := m.currentImage()
	if img == nil || m.focus != paneTags {
		return
	}
	rows := m.tagRows()
	if len(rows) == 0 {
		return
	}
	row := rows[m.cursors[paneTags]]
	if row.suggestion {
		return
	}
	img.RemoveTag(row.tag)
}

func (m *Model) moveCursor(delta int) {
	n := m.paneLen(m.focus)
	if n == 0 {
		m.cursors[m.focus] = 0
		return
	}
	next := m.cursors[m.focus] + delta
	if next < 0 {
		next = 0
	}
	if next >= n {
		next = n - 1
	}
	m.cursors[m.focus] = next
}

func (m Model) paneLen(p pane) int {
	switch p {
	case paneProjects:
		return len(m.projects)
	case paneImages:
		return len(m.images())
	case paneTags:
		return len(m.tagRows())
	}
	return 0
}

// currentImage returns the live image container matching the bound view.
func (m Model) currentImage() *tagging.Image {
	project := m.app.CurrentProject()
	if project == nil {
		return nil
	}
	return project.CurrentImage()
}
