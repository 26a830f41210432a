// Package app wires the root Bubble Tea model: view routing, the
// engine event subscription, and the window visibility signal.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/coffeemeet/internal/api"
	"github.com/nhle/coffeemeet/internal/credential"
	"github.com/nhle/coffeemeet/internal/keys"
	"github.com/nhle/coffeemeet/internal/model"
	"github.com/nhle/coffeemeet/internal/notify"
	"github.com/nhle/coffeemeet/internal/ui"
	"github.com/nhle/coffeemeet/internal/ui/campaigns"
	"github.com/nhle/coffeemeet/internal/ui/inbox"
	"github.com/nhle/coffeemeet/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewCampaigns
	ViewSettings
)

// Model is the root Bubble Tea model.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap
	engine      *notify.Engine
	client      *api.Client
	cfg         *model.AppConfig
	cfgPath     string

	inboxView     inbox.Model
	campaignsView campaigns.Model
	settingsView  settings.Model

	ready       bool
	showHelp    bool
	unreadCount int
	authMessage string
}

// New creates the root application model. The engine and API client are
// constructed by the caller and shared by reference; nothing here is a
// global.
func New(
	e *notify.Engine,
	client *api.Client,
	cfg *model.AppConfig,
	cfgPath string,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:   ViewInbox,
		keys:          k,
		engine:        e,
		client:        client,
		cfg:           cfg,
		cfgPath:       cfgPath,
		inboxView:     inbox.New(e, k, 80, 24),
		campaignsView: campaigns.New(client, k, cfg.Sync.PageSize, 80, 24),
		settingsView:  settings.New(cfg, cfgPath, 80, 24),
	}
}

// Init starts polling, performs the first fetches, and subscribes to
// engine events.
func (m Model) Init() tea.Cmd {
	m.engine.StartPolling()
	return tea.Batch(
		m.inboxView.Init(),
		m.campaignsView.Init(),
		m.engine.WaitForEvent(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.inboxView.SetSize(w, h)
		m.campaignsView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case tea.FocusMsg:
		// The terminal regained focus: resume polling with an
		// immediate catch-up check.
		m.engine.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.engine.SetVisible(false)
		return m, nil

	case notify.Event:
		snap := m.engine.Snapshot()
		m.unreadCount = snap.UnreadCount
		if msg.Kind == notify.EventAuthExpired {
			m.authMessage = "session expired — press s to update your token"
		}
		cmd := m.inboxView.SetState(snap)
		return m, tea.Batch(cmd, m.engine.WaitForEvent())

	case inbox.ActionDoneMsg:
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case campaigns.LoadedMsg:
		var cmd tea.Cmd
		m.campaignsView, cmd = m.campaignsView.Update(msg)
		return m, cmd

	case settings.DoneMsg:
		return m.handleSettingsDone(msg)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateActiveView(msg)
}

// handleSettingsDone applies saved settings and returns to the inbox.
func (m Model) handleSettingsDone(msg settings.DoneMsg) (tea.Model, tea.Cmd) {
	m.currentView = ViewInbox

	if msg.Err != nil {
		m.authMessage = msg.Err.Error()
		return m, nil
	}
	if !msg.Saved {
		return m, nil
	}

	m.authMessage = ""
	if msg.TokenChanged {
		if token, err := credential.Get(credential.TokenKey); err == nil {
			m.client.SetToken(token)
		}
		m.engine.SetUsable(true)
		m.engine.StartPolling()
	}

	// Server-side settings changes may generate a confirmation
	// notification; check for it once the server has settled.
	m.engine.TriggerImmediateCheck()

	return m, m.inboxView.Init()
}

// handleKeys processes global keys and routes the rest to the active view.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The settings form owns all key input while active.
	if m.currentView == ViewSettings {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.engine.StopPolling()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Inbox):
		m.currentView = ViewInbox
		return m, nil

	case key.Matches(msg, m.keys.Campaigns):
		m.currentView = ViewCampaigns
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.currentView = ViewSettings
		m.settingsView = settings.New(
			m.cfg, m.cfgPath,
			m.layout.ContentWidth(), m.layout.ContentHeight(),
		)
		return m, m.settingsView.Init()
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to whichever view is active.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewCampaigns:
		m.campaignsView, cmd = m.campaignsView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}
	return m, cmd
}

// View renders the full frame: header with unread badge, the active
// view, and the status bar.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	badge := ""
	if m.unreadCount > 0 {
		badge = renderUnread(m.unreadCount)
	}

	var content string
	switch m.currentView {
	case ViewInbox:
		content = m.inboxView.View()
	case ViewCampaigns:
		content = m.campaignsView.View()
	case ViewSettings:
		content = m.settingsView.View()
	}

	return m.layout.RenderWithFrame(
		m.layout.RenderHeader("coffeemeet", badge),
		content,
		m.layout.RenderStatusBar(m.statusHints()),
	)
}

// statusHints builds the status bar text: auth problems first, then
// key hints.
func (m Model) statusHints() string {
	if m.authMessage != "" {
		return m.authMessage
	}

	bindings := m.keys.ShortHelp()
	if m.showHelp {
		bindings = nil
		for _, group := range m.keys.FullHelp() {
			bindings = append(bindings, group...)
		}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func renderUnread(n int) string {
	if n == 1 {
		return "1 unread"
	}
	return fmt.Sprintf("%d unread", n)
}
