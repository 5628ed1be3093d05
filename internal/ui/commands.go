package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/five82/tagger/internal/diag"
	"github.com/five82/tagger/internal/prefs"
)

const logTailLines = 500

// Operation names reported in opDoneMsg.
const (
	opLoadProjects = "load projects"
	opOpenProject  = "open project"
	opSelectImage  = "select image"
	opSaveTags     = "save tags"
	opAutoTag      = "auto-tag"
	opRetry        = "retry"
)

// opDoneMsg reports that a blocking container operation returned. Results
// reach the view through the bindings; only failures that never touch
// container state are carried here.
type opDoneMsg struct {
	op     string
	target string
	err    error
}

type logsMsg struct {
	lines []string
	err   error
}

func (m Model) loadProjectsCmd(refresh bool) tea.Cmd {
	ctx, app := m.ctx, m.app
	return func() tea.Msg {
		app.LoadProjects(ctx, refresh)
		return opDoneMsg{op: opLoadProjects}
	}
}

func (m Model) openProjectCmd(name string) tea.Cmd {
	ctx, app, prefsPath := m.ctx, m.app, m.prefsPath
	return func() tea.Msg {
		app.OpenProject(ctx, name)
		if prefsPath != "" {
			if err := prefs.Update(prefsPath, func(p *prefs.Prefs) { p.LastProject = name }); err != nil {
				glog.Warningf("[ui]save last project: %v", err)
			}
		}
		return opDoneMsg{op: opOpenProject, target: name}
	}
}

func (m Model) selectImageCmd(name string) tea.Cmd {
	ctx, app := m.ctx, m.app
	return func() tea.Msg {
		project := app.CurrentProject()
		if project == nil {
			return nil
		}
		_, err := project.SelectImage(ctx, name)
		return opDoneMsg{op: opSelectImage, target: name, err: err}
	}
}

func (m Model) saveTagsCmd() tea.Cmd {
	img := m.currentImage()
	if img == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		img.SaveTags(ctx)
		return opDoneMsg{op: opSaveTags, target: img.Name()}
	}
}

func (m Model) autoTagCmd() tea.Cmd {
	img := m.currentImage()
	if img == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		img.AutoTag(ctx)
		return opDoneMsg{op: opAutoTag, target: img.Name()}
	}
}

func (m Model) retryCmd() tea.Cmd {
	ctx, app := m.ctx, m.app
	return func() tea.Msg {
		app.Retry(ctx)
		return opDoneMsg{op: opRetry}
	}
}

// loadLogsCmd reads warnings and errors from the glog file.
func (m Model) loadLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		lines, err := diag.Tail(path, logTailLines)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{lines: diag.Filter(lines, diag.SeverityWarning)}
	}
}
