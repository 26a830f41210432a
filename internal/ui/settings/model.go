// Package settings is the connection settings form: server URL, API
// token, and poll interval. The token goes to the system keyring; the
// rest is written back to the YAML config.
package settings

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/coffeemeet/internal/credential"
	"github.com/nhle/coffeemeet/internal/model"
)

// DoneMsg is sent when the user finished (or aborted) the form.
type DoneMsg struct {
	// Saved is true when new settings were written.
	Saved bool

	// TokenChanged is true when a new token was stored; the app then
	// rebuilds the API client and restarts the engine.
	TokenChanged bool

	Err error
}

// Model is the settings form view.
type Model struct {
	form    *huh.Form
	cfg     *model.AppConfig
	cfgPath string
	baseURL string
	token   string
	pollSec string
	width   int
	height  int
}

// New creates a settings form pre-filled from the current config.
func New(cfg *model.AppConfig, cfgPath string, width, height int) Model {
	m := Model{
		cfg:     cfg,
		cfgPath: cfgPath,
		baseURL: cfg.Server.BaseURL,
		pollSec: strconv.Itoa(cfg.Sync.PollIntervalSec),
		width:   width,
		height:  height,
	}
	m.form = m.buildForm()
	return m
}

// buildForm constructs the huh form bound to the model's fields.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Root URL of the campaign service API").
				Placeholder("https://api.coffeemeet.example.com").
				Value(&m.baseURL),
			huh.NewInput().
				Title("API Token").
				Description("Leave empty to keep the current token").
				EchoMode(huh.EchoModePassword).
				Value(&m.token),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Value(&m.pollSec),
		),
	)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update drives the form and saves on completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	if m.form.State == huh.StateCompleted {
		return m, m.saveCmd()
	}

	return m, cmd
}

// saveCmd persists the form values.
func (m Model) saveCmd() tea.Cmd {
	return func() tea.Msg {
		m.cfg.Server.BaseURL = m.baseURL
		if sec, err := strconv.Atoi(m.pollSec); err == nil && sec > 0 {
			m.cfg.Sync.PollIntervalSec = sec
		}

		if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
			return DoneMsg{Err: fmt.Errorf("saving settings: %w", err)}
		}

		tokenChanged := false
		if m.token != "" {
			if err := credential.Set(credential.TokenKey, m.token); err != nil {
				return DoneMsg{Err: fmt.Errorf("storing token: %w", err)}
			}
			tokenChanged = true
		}

		return DoneMsg{Saved: true, TokenChanged: tokenChanged}
	}
}

// View renders the form.
func (m Model) View() string {
	return m.form.View()
}
