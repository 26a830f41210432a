package inbox

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/coffeemeet/internal/keys"
	"github.com/nhle/coffeemeet/internal/notify"
	"github.com/nhle/coffeemeet/internal/theme"
)

// loadMoreThreshold is how close to the end of the loaded list the
// selection may get before the next page is requested.
const loadMoreThreshold = 3

// ActionDoneMsg reports the outcome of a user-triggered engine call.
type ActionDoneMsg struct {
	Err error
}

// Model is the notification inbox view. It renders engine snapshots and
// translates key presses into engine calls; it never mutates state
// itself.
type Model struct {
	list   list.Model
	engine *notify.Engine
	keys   *keys.KeyMap
	state  notify.State
	status string
	width  int
	height int
}

// New creates a new inbox model bound to the engine.
func New(e *notify.Engine, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		engine: e,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init triggers the first fetch.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd(false)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// SetState installs a fresh engine snapshot and rebuilds the list rows.
func (m *Model) SetState(st notify.State) tea.Cmd {
	m.state = st
	items := make([]list.Item, len(st.Items))
	for i, n := range st.Items {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ActionDoneMsg:
		if msg.Err != nil {
			m.status = msg.Err.Error()
		} else {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes inbox key input.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd(true)

	case key.Matches(msg, m.keys.ToggleRead):
		if n, ok := m.selected(); ok {
			if n.IsRead {
				return m, m.engineCmd(func(ctx context.Context) error {
					return m.engine.MarkAsUnread(ctx, n.ID)
				})
			}
			return m, m.engineCmd(func(ctx context.Context) error {
				return m.engine.MarkAsRead(ctx, n.ID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.selected(); ok {
			return m, m.engineCmd(func(ctx context.Context) error {
				return m.engine.DeleteNotification(ctx, n.ID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.MarkAllAsRead(ctx)
		})
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	// Sentinel-triggered pagination: request the next page when the
	// selection nears the end of what is loaded.
	if loadCmd := m.maybeLoadMore(); loadCmd != nil {
		return m, tea.Batch(cmd, loadCmd)
	}
	return m, cmd
}

// maybeLoadMore returns a load-more command when the selection is close
// to the tail and more pages exist. The engine guards against
// overlapping requests, so firing repeatedly is harmless.
func (m Model) maybeLoadMore() tea.Cmd {
	total := len(m.state.Items)
	if total == 0 || !m.state.Pagination.HasMore ||
		m.state.LoadingMore || m.state.Loading {
		return nil
	}
	if m.list.Index() < total-loadMoreThreshold {
		return nil
	}
	return m.engineCmd(func(ctx context.Context) error {
		return m.engine.LoadMore(ctx)
	})
}

// selected returns the notification under the cursor.
func (m Model) selected() (n notifySelected, ok bool) {
	it, isItem := m.list.SelectedItem().(Item)
	if !isItem {
		return notifySelected{}, false
	}
	return notifySelected{ID: it.Notification.ID, IsRead: it.Notification.IsRead}, true
}

// notifySelected carries the fields the key handlers need.
type notifySelected struct {
	ID     string
	IsRead bool
}

// refreshCmd fetches the list; force bypasses the freshness check.
func (m Model) refreshCmd(force bool) tea.Cmd {
	return m.engineCmd(func(ctx context.Context) error {
		return m.engine.FetchNotifications(ctx, force)
	})
}

// engineCmd wraps an engine call into a tea.Cmd reporting its outcome.
func (m Model) engineCmd(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Err: fn(context.Background())}
	}
}

// View renders the inbox.
func (m Model) View() string {
	out := m.list.View()

	switch {
	case m.state.Error != "":
		out += "\n" + theme.ErrorStyle.Render(
			fmt.Sprintf("error: %s (r to retry)", m.state.Error),
		)
	case m.status != "":
		out += "\n" + theme.ErrorStyle.Render(m.status)
	case m.state.LoadingMore:
		out += "\n" + theme.HelpStyle.Render("loading more…")
	case m.state.Loading:
		out += "\n" + theme.HelpStyle.Render("loading…")
	}

	return out
}
