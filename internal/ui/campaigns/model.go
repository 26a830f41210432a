// Package campaigns is the campaign history browser. It is the second
// consumer of the generic pagination loader, with its own independent
// cursor; nothing here is shared with the notification inbox.
package campaigns

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/coffeemeet/internal/api"
	"github.com/nhle/coffeemeet/internal/keys"
	"github.com/nhle/coffeemeet/internal/model"
	"github.com/nhle/coffeemeet/internal/pagination"
	"github.com/nhle/coffeemeet/internal/theme"
)

// loadMoreThreshold mirrors the inbox near-end trigger distance.
const loadMoreThreshold = 3

// LoadedMsg is sent when a loader operation finished; the view then
// re-reads the loader snapshot.
type LoadedMsg struct {
	Err error
}

// Item wraps a model.Campaign for the bubbles list.
type Item struct {
	Campaign model.Campaign
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Campaign.Name }

// Delegate renders one campaign row.
type Delegate struct{}

func (d Delegate) Height() int                             { return 1 }
func (d Delegate) Spacing() int                            { return 0 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single campaign row.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}

	c := it.Campaign
	statusBadge := theme.CampaignStatusStyle(c.Status).Render(c.Status)
	participants := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%d participants", c.Participants))

	line := fmt.Sprintf("%s %s  %s", statusBadge, c.Name, participants)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the campaign history view.
type Model struct {
	list   list.Model
	loader *pagination.Loader[model.Campaign]
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a campaign history model backed by its own pagination
// loader over the campaigns endpoint.
func New(client *api.Client, k *keys.KeyMap, pageSize, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Campaign History"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	loader := pagination.NewLoader(pageSize,
		func(ctx context.Context, page, size int) (pagination.Page[model.Campaign], error) {
			res, err := client.ListCampaigns(ctx, page, size)
			if err != nil {
				return pagination.Page[model.Campaign]{}, err
			}
			return pagination.Page[model.Campaign]{
				Items:   res.Items,
				Total:   res.Total,
				HasMore: res.HasMore,
			}, nil
		})

	return Model{
		list:   l,
		loader: loader,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.loadInitialCmd()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Update handles messages for the campaign history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		st := m.loader.Snapshot()
		items := make([]list.Item, len(st.Items))
		for i, c := range st.Items {
			items[i] = Item{Campaign: c}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Refresh) {
			return m, m.refreshCmd()
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		if loadCmd := m.maybeLoadMore(); loadCmd != nil {
			return m, tea.Batch(cmd, loadCmd)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// maybeLoadMore requests the next page when the selection nears the end.
// The loader's own guards make repeated requests harmless.
func (m Model) maybeLoadMore() tea.Cmd {
	st := m.loader.Snapshot()
	if len(st.Items) == 0 || !st.HasMore || st.Loading || st.LoadingMore {
		return nil
	}
	if m.list.Index() < len(st.Items)-loadMoreThreshold {
		return nil
	}
	return m.loadMoreCmd()
}

func (m Model) loadInitialCmd() tea.Cmd {
	return func() tea.Msg {
		return LoadedMsg{Err: m.loader.LoadInitial(context.Background())}
	}
}

func (m Model) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		_, _, err := m.loader.LoadMore(context.Background())
		return LoadedMsg{Err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return LoadedMsg{Err: m.loader.Refresh(context.Background())}
	}
}

// View renders the campaign history.
func (m Model) View() string {
	out := m.list.View()

	st := m.loader.Snapshot()
	switch {
	case st.Err != nil:
		out += "\n" + theme.ErrorStyle.Render(
			fmt.Sprintf("error: %s (r to retry)", st.Err),
		)
	case st.LoadingMore:
		out += "\n" + theme.HelpStyle.Render("loading more…")
	case st.Loading:
		out += "\n" + theme.HelpStyle.Render("loading…")
	}

	return out
}
