// Package ui provides the interactive podcast player.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashtra-audio/ashtra/internal/ambience"
	"github.com/ashtra-audio/ashtra/internal/attachment"
	"github.com/ashtra-audio/ashtra/internal/mixer"
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"

	statusBarHeight = 1
	composerHeight  = 3
)

// NewProgram returns a new Tea program driving store. amb may be nil when
// there is no ambience loop.
func NewProgram(cfg Config, store *session.Store, mx *mixer.Mixer, amb *ambience.Controller) *tea.Program {
	log.Debug(
		"Starting ashtra",
		"server", cfg.Server,
		"silent", cfg.Silent,
		"mouse", cfg.EnableMouse,
	)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, store, mx, amb), opts...)
}

// focus is the pane receiving keys.
type focus int

const (
	focusComposer focus = iota
	focusConversation
	focusSidebar
	focusCount
)

func (f focus) String() string {
	return map[focus]string{
		focusComposer:     "composer",
		focusConversation: "conversation",
		focusSidebar:      "sidebar",
	}[f]
}

func (f focus) next() focus { return (f + 1) % focusCount }
func (f focus) prev() focus { return (f + focusCount - 1) % focusCount }

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common *commonModel

	store    *session.Store
	ctrl     *playback.Controller
	mixer    *mixer.Mixer
	ambience *ambience.Controller

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	focus        focus
	sidebar      sidebarModel
	conversation conversationModel
	composer     textarea.Model

	attachPrompt bool
	attachInput  textinput.Model
	watcher      *attachment.Watcher

	// In-flight backend work.
	generating bool
	loadingID  string

	// Track whose completion is being waited on.
	waiting playback.Track
	// Last observed controller index, used to keep the cursor on the
	// playing row.
	lastIndex int

	status    string
	statusSeq int

	// Blocking notice; any key dismisses it.
	notice error
}

func newModel(cfg Config, store *session.Store, mx *mixer.Mixer, amb *ambience.Controller) model {
	if cfg.GlamourStyle == styles.AutoStyle || cfg.GlamourStyle == "" {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	lipgloss.SetHasDarkBackground(cfg.GlamourStyle != styles.LightStyle)

	if mx == nil {
		mx = mixer.New(mixer.DefaultVoice, mixer.DefaultAmbience)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	ta := textarea.New()
	ta.Placeholder = "What should the hosts talk about?"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(composerHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ai := textinput.New()
	ai.Prompt = "file: "
	ai.Placeholder = "~/notes/outline.pdf"

	return model{
		common:       &commonModel{cfg: cfg},
		store:        store,
		ctrl:         store.Controller(),
		mixer:        mx,
		ambience:     amb,
		keys:         newKeyMap(),
		help:         help.New(),
		spinner:      sp,
		focus:        focusComposer,
		sidebar:      newSidebarModel(),
		conversation: newConversationModel(),
		composer:     ta,
		attachInput:  ai,
		lastIndex:    -1,
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "focus", m.focus)
	return tea.Batch(textarea.Blink, m.refreshList())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// A blocking notice swallows the next key press.
	if m.notice != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.notice = nil
			return m, nil
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.conversation.viewport, cmd = m.conversation.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case sessionsMsg:
		if m.store.ApplySessions(session.ListResult(msg)) {
			m.sidebar.setItems(m.store.Summaries())
		}

	case sessionMsg:
		if msg.ID == m.loadingID {
			m.loadingID = ""
		}
		if m.store.ApplyLoad(session.LoadResult(msg)) {
			m.conversation.cursor = 0
			cmds = append(cmds, m.syncTrack(), m.refreshList())
		}

	case generatedMsg:
		m.generating = false
		res := session.GenerateResult(msg)
		m.store.ApplyGeneration(res)
		if res.Err != nil {
			m.notice = errGenerate
			break
		}
		m.composer.SetValue(m.store.Draft().Prompt)
		m.closeWatcher()
		cmds = append(cmds, m.syncTrack(), m.refreshList())

	case trackDoneMsg:
		if msg.track == m.waiting {
			m.waiting = nil
		}
		if m.ctrl.TrackDone(msg.track) {
			cmds = append(cmds, m.syncTrack())
		}

	case attachedMsg:
		if msg.err != nil {
			log.Error("unable to attach file", "path", msg.path, "error", msg.err)
			cmds = append(cmds, m.showStatus(attachErrorNote(msg.err)))
			break
		}
		m.closeWatcher()
		m.store.Attach(msg.att)
		m.watcher = msg.watcher
		if m.watcher != nil {
			cmds = append(cmds, watchAttachmentCmd(m.watcher))
		}
		cmds = append(cmds, m.showStatus("Attached "+msg.att.Name))

	case attachmentChangedMsg:
		if msg.watcher != m.watcher || m.watcher == nil {
			break
		}
		if msg.err != nil {
			log.Warn("unable to reload attachment", "path", m.watcher.Path(), "error", msg.err)
		} else {
			m.store.Attach(msg.att)
			cmds = append(cmds, m.showStatus("Reloaded "+msg.att.Name))
		}
		cmds = append(cmds, watchAttachmentCmd(m.watcher))

	case statusMsg:
		cmds = append(cmds, m.showStatus(string(msg)))

	case statusTimeout:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
	}

	m.followPlayback()
	m.renderConversation()
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	k := m.keys

	// Ctrl+C always quits no matter where in the application you are.
	if msg.String() == "ctrl+c" {
		cmd := m.quit()
		return m, cmd
	}

	if m.attachPrompt {
		return m.handleAttachPromptKey(msg)
	}

	if m.focus == focusSidebar && m.sidebar.filterState == filtering {
		switch {
		case key.Matches(msg, k.Back):
			m.sidebar.resetFilter()
			return m, nil
		case key.Matches(msg, k.Select):
			m.sidebar.acceptFilter()
			return m, nil
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.updateFilter(msg)
		return m, cmd
	}

	if ch, ok := m.mixer.Focused(); ok {
		switch {
		case key.Matches(msg, k.VolumeUp):
			m.mixer.Nudge(ch, 1)
			return m, nil
		case key.Matches(msg, k.VolumeDown):
			m.mixer.Nudge(ch, -1)
			return m, nil
		case key.Matches(msg, k.Back):
			m.mixer.Dismiss()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, k.NextFocus):
		cmd := m.setFocus(m.focus.next())
		return m, cmd
	case key.Matches(msg, k.PrevFocus):
		cmd := m.setFocus(m.focus.prev())
		return m, cmd
	case key.Matches(msg, k.Attach):
		m.attachPrompt = true
		m.composer.Blur()
		cmd := m.attachInput.Focus()
		return m, cmd
	case key.Matches(msg, k.Detach):
		if m.store.Draft().Attachment != nil {
			m.store.Attach(nil)
			m.closeWatcher()
			cmd := m.showStatus("Removed attachment")
			return m, cmd
		}
		return m, nil
	}

	if m.focus == focusComposer {
		return m.handleComposerKey(msg)
	}

	switch {
	case key.Matches(msg, k.Quit):
		cmd := m.quit()
		return m, cmd
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize(m.common.width, m.common.height)
		return m, nil
	case key.Matches(msg, k.Back):
		cmd := m.setFocus(focusComposer)
		return m, cmd
	case key.Matches(msg, k.Toggle):
		m.ctrl.Toggle()
		cmd := m.syncTrack()
		return m, cmd
	case key.Matches(msg, k.SkipBack):
		m.ctrl.SkipBack()
		cmd := m.syncTrack()
		return m, cmd
	case key.Matches(msg, k.SkipForward):
		m.ctrl.SkipForward()
		cmd := m.syncTrack()
		return m, cmd
	case key.Matches(msg, k.Copy):
		if seg, ok := m.ctrl.Current(); ok {
			return m, copyCmd(seg.Transcript)
		}
		return m, nil
	case key.Matches(msg, k.VoiceVolume):
		m.mixer.Toggle(mixer.Voice)
		return m, nil
	case key.Matches(msg, k.AmbVolume):
		m.mixer.Toggle(mixer.Ambience)
		return m, nil
	case key.Matches(msg, k.NewSession):
		cmd := m.newSession()
		return m, cmd
	case key.Matches(msg, k.Refresh):
		cmd := m.refreshList()
		return m, cmd
	}

	switch m.focus { //nolint:exhaustive
	case focusConversation:
		switch {
		case key.Matches(msg, k.Up):
			m.conversation.moveCursor(-1, m.ctrl.Len())
		case key.Matches(msg, k.Down):
			m.conversation.moveCursor(1, m.ctrl.Len())
		case key.Matches(msg, k.Select):
			if err := m.ctrl.JumpTo(m.conversation.cursor); err != nil {
				log.Debug("jump ignored", "error", err)
				return m, nil
			}
			cmd := m.syncTrack()
			return m, cmd
		}

	case focusSidebar:
		switch {
		case key.Matches(msg, k.Up):
			m.sidebar.moveCursor(-1)
		case key.Matches(msg, k.Down):
			m.sidebar.moveCursor(1)
		case key.Matches(msg, k.Filter):
			cmd := m.sidebar.startFilter()
			return m, cmd
		case key.Matches(msg, k.Select):
			if s, ok := m.sidebar.selected(); ok {
				cmd := m.loadSession(s.ID)
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m model) handleComposerKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		cmd := m.setFocus(focusConversation)
		return m, cmd
	case key.Matches(msg, m.keys.Send):
		cmd := m.generate()
		return m, cmd
	case key.Matches(msg, m.keys.Newline):
		m.composer.InsertString("\n")
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.store.SetPrompt(m.composer.Value())
	return m, cmd
}

func (m model) handleAttachPromptKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeAttachPrompt()
		cmd := m.setFocus(m.focus)
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		path := strings.TrimSpace(m.attachInput.Value())
		m.closeAttachPrompt()
		focusCmd := m.setFocus(m.focus)
		if path == "" {
			return m, focusCmd
		}
		return m, tea.Batch(focusCmd, attachCmd(path))
	}
	var cmd tea.Cmd
	m.attachInput, cmd = m.attachInput.Update(msg)
	return m, cmd
}

func (m *model) closeAttachPrompt() {
	m.attachPrompt = false
	m.attachInput.Blur()
	m.attachInput.Reset()
}

func (m *model) setFocus(f focus) tea.Cmd {
	m.focus = f
	if f == focusComposer {
		return m.composer.Focus()
	}
	m.composer.Blur()
	if f == focusConversation {
		m.conversation.cursor = m.ctrl.Index()
	}
	return nil
}

// busy reports whether a generation or a session load is in flight.
func (m model) busy() bool {
	return m.generating || m.loadingID != ""
}

func (m *model) generate() tea.Cmd {
	if m.busy() {
		return nil
	}
	m.store.SetPrompt(m.composer.Value())
	req, err := m.store.BeginGenerate()
	if errors.Is(err, session.ErrEmptyDraft) {
		return m.showStatus("Type a prompt or attach a file first")
	}
	m.generating = true
	log.Debug("generating", "prompt_length", len(req.Message), "file_type", req.FileType)
	return tea.Batch(m.spinner.Tick, generateCmd(m.store, req))
}

func (m *model) loadSession(id string) tea.Cmd {
	if m.busy() {
		return nil
	}
	m.loadingID = id
	return tea.Batch(m.spinner.Tick, fetchSessionCmd(m.store, id))
}

func (m *model) newSession() tea.Cmd {
	if m.busy() {
		return nil
	}
	m.store.StartNewSession()
	m.composer.Reset()
	m.closeWatcher()
	m.conversation.cursor = 0
	return tea.Batch(m.syncTrack(), m.refreshList(), m.setFocus(focusComposer))
}

func (m *model) refreshList() tea.Cmd {
	return fetchSessionsCmd(m.store, m.store.BeginList())
}

// syncTrack starts waiting on the bound voice track if it is new.
func (m *model) syncTrack() tea.Cmd {
	t := m.ctrl.Track()
	if t == nil || t == m.waiting {
		return nil
	}
	m.waiting = t
	return waitTrackCmd(t)
}

// followPlayback moves the conversation cursor along with the playing row
// unless the conversation pane is being navigated.
func (m *model) followPlayback() {
	idx := m.ctrl.Index()
	if idx != m.lastIndex && m.focus != focusConversation {
		m.conversation.cursor = idx
	}
	m.lastIndex = idx
	m.conversation.clampCursor(m.ctrl.Len())
}

func (m *model) closeWatcher() {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Close(); err != nil {
		log.Debug("closing attachment watcher", "error", err)
	}
	m.watcher = nil
}

func (m *model) quit() tea.Cmd {
	m.closeWatcher()
	if err := m.ctrl.Close(); err != nil {
		log.Warn("closing voice track", "error", err)
	}
	return tea.Quit
}

func (m *model) showStatus(s string) tea.Cmd {
	m.statusSeq++
	m.status = s
	return statusTimeoutCmd(m.statusSeq)
}

func (m *model) setSize(w, h int) {
	m.common.width = w
	m.common.height = h
	m.help.Width = w

	sw := min(m.common.cfg.SidebarWidth, w/3)
	mw := w - sw
	bodyH := h - statusBarHeight - m.helpHeight()

	m.sidebar.setSize(sw-2, bodyH-2)
	m.composer.SetWidth(max(1, mw-4))
	m.attachInput.Width = max(1, mw-12)

	convH := bodyH - (stageHeight + 2) - (composerHeight + 1 + 2)
	m.conversation.setSize(max(1, mw-4), max(1, convH-2))
}

func (m model) helpHeight() int {
	if !m.help.ShowAll {
		return 0
	}
	return lipgloss.Height(m.help.View(m.keys))
}

func (m *model) renderConversation() {
	playing := -1
	if m.ctrl.Len() > 0 {
		playing = m.ctrl.Index()
	}
	m.conversation.render(m.ctrl.Segments(), playing, m.focus == focusConversation)
}

func (m model) View() string {
	width, height := m.common.width, m.common.height
	if width == 0 || height == 0 {
		return ""
	}
	if m.notice != nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			modalStyle.Render(errorView(m.notice, false)))
	}

	sw := min(m.common.cfg.SidebarWidth, width/3)
	mw := width - sw
	bodyH := height - statusBarHeight - m.helpHeight()
	convH := bodyH - (stageHeight + 2) - (composerHeight + 1 + 2)

	sidebar := pane(m.sidebar.view(m.store.Active(), m.focus == focusSidebar), sw, bodyH, m.focus == focusSidebar)

	stage := stageView(m.ctrl, mw-6)
	if pop := volumeView(m.mixer); pop != "" {
		stageW := mw - 4 - lipgloss.Width(pop)
		stage = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(stageW).Render(stageView(m.ctrl, stageW-2)),
			pop,
		)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		pane(stage, mw, stageHeight+2, false),
		pane(m.conversation.view(), mw, convH, m.focus == focusConversation),
		pane(m.composerView(), mw, composerHeight+1+2, m.focus == focusComposer || m.attachPrompt),
	)

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main))
	b.WriteString("\n")
	m.statusBarView(&b)
	if m.help.ShowAll {
		b.WriteString("\n" + m.help.View(m.keys))
	}
	return b.String()
}

func (m model) composerView() string {
	var line string
	switch {
	case m.attachPrompt:
		line = m.attachInput.View()
	case m.store.Draft().Attachment != nil:
		line = "📎 " + attachedNote(m.store.Draft().Attachment)
		if m.watcher != nil {
			line += subtleStyle.Render(" • watching")
		}
	default:
		line = subtleStyle.Render("ctrl+o attach a reference file")
	}
	return m.composer.View() + "\n" + line
}

func (m model) statusBarView(b *strings.Builder) {
	width := m.common.width
	logo := logoStyle.Render("Ashtra")
	helpNote := statusBarHelpStyle(" ? Help ")

	showStatusMessage := m.status != ""
	var note string
	switch {
	case showStatusMessage:
		note = m.status
	case m.generating:
		note = m.spinner.View() + " Generating podcast..."
	case m.loadingID != "":
		note = m.spinner.View() + " Loading " + m.loadingID + "..."
	default:
		note = m.sessionNote()
	}

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	padding := max(0,
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		note = statusBarMessageStyle(note)
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		note = statusBarNoteStyle(note)
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s", logo, note, emptySpace, helpNote)
}

func (m model) sessionNote() string {
	title := "New project"
	if id := m.store.Active(); id != "" {
		title = id
		for _, s := range m.store.Summaries() {
			if s.ID == id {
				title = s.DisplayTitle()
				break
			}
		}
	}
	parts := []string{title, m.ctrl.State().String()}
	if m.ambience != nil && m.ambience.Active() {
		parts = append(parts, "ambience on")
	}
	if m.common.cfg.Silent {
		parts = append(parts, "no audio")
	}
	if m.common.cfg.Server != "" {
		parts = append(parts, m.common.cfg.Server)
	}
	return strings.Join(parts, " • ")
}

func pane(content string, w, h int, focused bool) string {
	st := paneStyle
	if focused {
		st = focusedPaneStyle
	}
	return st.Width(max(0, w-2)).Height(max(0, h-2)).MaxHeight(max(0, h)).Render(content)
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	return fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
}

func attachErrorNote(err error) string {
	switch {
	case errors.Is(err, attachment.ErrTooLarge):
		return "File is too large to attach"
	case errors.Is(err, attachment.ErrNotRegular):
		return "Only regular files can be attached"
	default:
		return "Unable to attach file"
	}
}
