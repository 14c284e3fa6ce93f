package ui

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"searchbox/internal/autocomplete"
	"searchbox/internal/bridge"
	"searchbox/internal/config"
	"searchbox/internal/domain"
	"searchbox/internal/eventbus"
	"searchbox/internal/ui/input"
	"searchbox/internal/ui/views"
)

// Elements are where the search box lives on screen
var Elements = bridge.Elements{
	Form:  "form",
	Input: "form/input",
	Panel: "panel",
}

const statusTimeout = 5 * time.Second

// Model represents the application state
type Model struct {
	controller *autocomplete.Controller
	bridge     *bridge.Bridge
	surface    *input.Surface
	keys       input.KeyMap
	cfg        *config.Config
	renderer   *views.Renderer
	details    *DetailsOps
	opener     *Opener
	program    *tea.Program

	input    textinput.Model
	help     help.Model
	state    domain.State
	frame    views.Frame
	hovering bool // pointer is over the panel

	width         int
	height        int
	ticking       bool
	inPagerMode   bool
	statusMessage string
}

// NewModel creates a model driving controller and attaches it to the terminal surface
func NewModel(controller *autocomplete.Controller, cfg *config.Config) (*Model, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = controller.InputProps().Attr("placeholder")
	ti.CharLimit = autocomplete.MaxQueryLength
	ti.Focus()

	m := &Model{
		controller: controller,
		bridge:     bridge.New(controller),
		keys:       input.DefaultKeyMap(),
		cfg:        cfg,
		renderer:   views.NewRenderer(),
		details:    NewDetailsOps(),
		opener:     NewOpener(cfg.UI.OpenCommand),
		input:      ti,
		help:       help.New(),
		state:      controller.Snapshot(),
	}
	m.surface = input.NewSurface(m.keys, Elements.Input, func(x, y int) bridge.Target {
		return m.frame.At(y)
	})

	if err := m.bridge.Attach(m.surface, Elements); err != nil {
		return nil, fmt.Errorf("failed to attach search box: %w", err)
	}
	return m, nil
}

// Listen forwards controller snapshots and the events the UI reacts to into p.
// The returned function stops forwarding.
func (m *Model) Listen(p *tea.Program) func() {
	m.program = p
	m.details.SetProgram(p)

	unsubs := []func(){
		m.controller.Subscribe(func(s domain.State) {
			p.Send(StateMsg{State: s})
		}),
	}
	for _, t := range []eventbus.EventType{eventbus.EventSourceFailed, eventbus.EventNavigationRequested} {
		unsubs = append(unsubs, m.controller.Bus().Subscribe(t, func(e eventbus.DomainEvent) {
			p.Send(EventMsg{Event: e})
		}))
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Close detaches the model from the terminal surface
func (m *Model) Close() {
	m.bridge.Detach()
}

// Init initializes the model. The terminal starts out focused on the input.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		func() tea.Msg { return tea.FocusMsg{} },
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-lipgloss.Width(m.input.Prompt)-1)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.FocusMsg:
		m.surface.Dispatch(msg)
		cmd := m.input.Focus()
		return m, tea.Batch(cmd, m.sync())

	case tea.BlurMsg:
		m.surface.Dispatch(msg)
		m.input.Blur()
		return m, m.sync()

	case StateMsg:
		m.state = msg.State
		return m, m.startTick()

	case EventMsg:
		return m.handleEvent(msg.Event)

	case tickMsg:
		if m.inPagerMode || !isLoading(m.state.Status) {
			m.ticking = false
			return m, nil
		}
		return m, tick()

	case detailsPagerMsg:
		if msg.err != nil {
			log.Printf("Details pager failed for %s: %v", msg.ref, msg.err)
			return m, m.setStatus(fmt.Sprintf("Could not show details: %v", msg.err))
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			log.Printf("Failed to open %s: %v", msg.url, msg.err)
			return m, m.setStatus(fmt.Sprintf("Failed to open %s: %v", msg.url, msg.err))
		}
		return m, m.setStatus("Opened " + msg.url)

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.sync()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Details):
		return m, m.showDetails()
	}

	// Navigation keys go through the bridge like any other environment signal
	if m.surface.Dispatch(msg) {
		return m, m.sync()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.controller.InputProps().OnInput(value)
	}
	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.surface.Dispatch(msg)

	ref, onItem := m.frame.ItemAt(msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		if onItem {
			m.controller.ItemProps(ref).OnMouseMove()
			m.hovering = true
		} else if m.hovering && !m.frame.At(msg.Y).Within(Elements.Panel) {
			m.controller.PanelProps().OnMouseLeave()
			m.hovering = false
		}

	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if onItem {
				m.controller.ItemProps(ref).OnClick()
			}
		case tea.MouseButtonWheelDown:
			m.controller.MoveActive(autocomplete.Next)
		case tea.MouseButtonWheelUp:
			m.controller.MoveActive(autocomplete.Previous)
		}
	}
	return m, m.sync()
}

func (m *Model) handleEvent(event eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case eventbus.NavigationRequestedEvent:
		if !m.opener.Enabled() {
			name := e.Item.Name
			if name == "" {
				name = e.Ref.String()
			}
			return m, m.setStatus(fmt.Sprintf("%s → %s", name, e.URL))
		}
		return m, m.opener.Open(e.URL)

	case eventbus.SourceFailedEvent:
		if e.Err != nil && e.Err.Generation == m.controller.Snapshot().Generation {
			return m, m.setStatus(fmt.Sprintf("%s: %v", e.Err.SourceID, e.Err.Err))
		}
	}
	return m, nil
}

// showDetails opens the active item in the pager
func (m *Model) showDetails() tea.Cmd {
	s := m.controller.Snapshot()
	if s.ActiveItemID == nil {
		return m.setStatus("No item selected")
	}
	ref := *s.ActiveItemID
	item, src, ok := s.Lookup(ref)
	if !ok {
		return nil
	}
	if m.program == nil {
		return m.setStatus("Details are not available")
	}

	content := renderDetails(ref, item, src.URLOf(item))
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.details.ShowInPager(content)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return detailsPagerMsg{ref: ref, err: err}
	}
}

// sync pulls the latest snapshot and mirrors the controller's query into the text input
func (m *Model) sync() tea.Cmd {
	m.state = m.controller.Snapshot()
	if q := string(m.state.Query); q != m.input.Value() {
		m.input.SetValue(q)
		m.input.CursorEnd()
	}
	return m.startTick()
}

func (m *Model) startTick() tea.Cmd {
	if m.ticking || !isLoading(m.state.Status) {
		return nil
	}
	m.ticking = true
	return tick()
}

func (m *Model) setStatus(message string) tea.Cmd {
	m.statusMessage = message
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// View renders the UI
func (m *Model) View() string {
	vs := views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Title:         sourceTitle(m.state),
		Input:         m.input.View(),
		State:         m.state,
		Status:        m.controller.PanelProps().Attr("data-status"),
		StatusMessage: m.statusMessage,
		Elements:      Elements,
	}
	if m.cfg.UI.ShowHelp {
		vs.Help = m.help.View(m.keys)
	}

	m.frame = m.renderer.Render(vs)
	return m.frame.Content
}

func sourceTitle(s domain.State) string {
	ids := make([]string, 0, len(s.Collections))
	for _, c := range s.Collections {
		ids = append(ids, c.SourceID())
	}
	return strings.Join(ids, " · ")
}

func isLoading(status domain.Status) bool {
	return status == domain.StatusLoading || status == domain.StatusStalled
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
