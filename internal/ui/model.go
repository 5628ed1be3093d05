package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/five82/tagger/internal/bind"
	"github.com/five82/tagger/internal/prefs"
	"github.com/five82/tagger/internal/state"
	"github.com/five82/tagger/internal/statetree"
	"github.com/five82/tagger/internal/tagging"
)

// pane is the focused column of the main layout.
type pane int

const (
	paneProjects pane = iota
	paneImages
	paneTags
	paneCount
)

// Binding names echoed in bind.UpdateMsg.
const (
	projectsBinding = "projects"
	projectBinding  = "project"
	imageBinding    = "image"
)

// Options configures the UI.
type Options struct {
	App         *tagging.App
	ThemeName   string
	LastProject string
	PrefsPath   string
	LogPath     string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	app         *tagging.App
	prefsPath   string
	logPath     string
	lastProject string

	// UI state
	keys     keyMap
	help     help.Model
	theme    Theme
	width    int
	height   int
	ready    bool
	focus    pane
	cursors  [paneCount]int
	showHelp bool
	notice   string

	// Bound views of the root store
	projectsView *bind.Binding
	projectView  *bind.Binding
	imageView    *bind.Binding

	// Decoded projections
	appState state.Status
	projects []string
	project  *tagging.ProjectSnapshot
	image    *tagging.ImageSnapshot

	// Tag entry
	adding bool
	input  textinput.Model

	// Warnings overlay
	showLogs    bool
	logViewport viewport.Model
}

// New builds the model and mounts its bindings on the app's root store.
func New(ctx context.Context, opts Options) (Model, error) {
	if opts.App == nil {
		return Model{}, errors.New("ui: app is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "new tag"
	input.Prompt = "+ "
	input.CharLimit = 64

	m := Model{
		ctx:         ctx,
		app:         opts.App,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		lastProject: opts.LastProject,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(opts.ThemeName),
		input:       input,
		logViewport: viewport.New(0, 0),

		projectsView: bind.New(projectsBinding, tagging.SelProjects),
		projectView: bind.New(projectBinding,
			tagging.SelProjectName, tagging.SelProjectState,
			tagging.SelImages, tagging.SelCategories),
		imageView: bind.New(imageBinding,
			tagging.SelImageName, tagging.SelImageState, tagging.SelTags,
			tagging.SelDirty, tagging.SelSuggestions, tagging.SelAutoTag,
			tagging.SelTxtFile, tagging.SelUncategorizedTags),
	}

	for _, b := range m.bindings() {
		if err := b.Mount(opts.App.Store()); err != nil {
			m.Close()
			return Model{}, err
		}
	}
	return m, nil
}

func (m Model) bindings() []*bind.Binding {
	return []*bind.Binding{m.projectsView, m.projectView, m.imageView}
}

func (m Model) binding(name string) *bind.Binding {
	for _, b := range m.bindings() {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Close unmounts every binding and releases pending listeners.
func (m Model) Close() {
	for _, b := range m.bindings() {
		b.Close()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 5)
	for _, b := range m.bindings() {
		cmds = append(cmds, b.Listen())
	}
	cmds = append(cmds, m.loadProjectsCmd(false))
	if m.lastProject != "" {
		cmds = append(cmds, m.openProjectCmd(m.lastProject))
	}
	return tea.Batch(cmds...)
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
		m.logViewport.Width = max(msg.Width-8, 10)
		m.logViewport.Height = max(msg.Height-8, 3)
		m.ready = true
		return m, nil

	case bind.UpdateMsg:
		m.apply(msg)
		if b := m.binding(msg.Name); b != nil {
			return m, b.Listen()
		}
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg), nil

	case logsMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("logs: %v", msg.err)
			return m, nil
		}
		m.logViewport.SetContent(m.renderLogLines(msg.lines))
		m.logViewport.GotoBottom()
		m.showLogs = true
		return m, nil
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply decodes a delivered projection into the view state.
func (m *Model) apply(msg bind.UpdateMsg) {
	snap, err := statetree.Decode[tagging.AppSnapshot](msg.Update.Data)
	if err != nil {
		glog.Warningf("[ui]decode %s update: %v", msg.Name, err)
		return
	}

	switch msg.Name {
	case projectsBinding:
		m.appState = msg.Update.State
		m.projects = make([]string, 0, len(snap.Projects))
		for _, p := range snap.Projects {
			m.projects = append(m.projects, p.Name)
		}
		m.clampCursor(paneProjects, len(m.projects))
	case projectBinding:
		m.project = snap.CurrentProject
		m.clampCursor(paneImages, len(m.images()))
	case imageBinding:
		m.image = nil
		if snap.CurrentProject != nil {
			m.image = snap.CurrentProject.CurrentImage
		}
		m.clampCursor(paneTags, len(m.tagRows()))
	}
}

func (m Model) handleOpDone(msg opDoneMsg) Model {
	if msg.err != nil {
		glog.Warningf("[ui]%s %s: %v", msg.op, msg.target, msg.err)
		m.notice = fmt.Sprintf("%s %s: %v", msg.op, msg.target, msg.err)
		return m
	}
	glog.V(1).Infof("[ui]%s %s done", msg.op, msg.target)
	m.notice = ""
	switch msg.op {
	case opOpenProject:
		m.focus = paneImages
		m.cursors[paneImages] = 0
	case opSelectImage:
		m.focus = paneTags
		m.cursors[paneTags] = 0
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

func (m Model) images() []string {
	if m.project == nil {
		return nil
	}
	return m.project.Images
}

// tagRow is one line of the tags pane: an applied tag or a pending
// suggestion.
type tagRow struct {
	tag        string
	suggestion bool
	confidence float64
}

func (m Model) tagRows() []tagRow {
	if m.image == nil {
		return nil
	}
	rows := make([]tagRow, 0, len(m.image.Tags)+len(m.image.Suggestions))
	for _, t := range m.image.Tags {
		rows = append(rows, tagRow{tag: t})
	}
	for _, s := range m.image.Suggestions {
		rows = append(rows, tagRow{tag: s.Tag, suggestion: true, confidence: s.Confidence})
	}
	return rows
}

func (m *Model) clampCursor(p pane, n int) {
	switch {
	case n == 0:
		m.cursors[p] = 0
	case m.cursors[p] >= n:
		m.cursors[p] = n - 1
	case m.cursors[p] < 0:
		m.cursors[p] = 0
	}
}

// Run starts the program and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
