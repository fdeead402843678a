package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/vibra/internal/guard"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

const trendingShown = 5

// View renders the navigation bar, the active view and its help line.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderNav())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())

	if m.status != "" {
		style := styles.ok
		if m.failed {
			style = styles.err
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(m.contextKeys()))
	return b.String()
}

func (m *Model) renderNav() string {
	link := func(label string, v ViewState) string {
		if m.view == v || (v == PlaylistsView && m.view == PlaylistDetailView) {
			return styles.active.Render(label)
		}
		return label
	}

	st := m.sess.State()
	links := []string{link("Home", HomeView)}
	if st.User != nil {
		links = append(links, link("Playlists", PlaylistsView), link("For You", RecommendationsView))
	}

	var account string
	switch {
	case st.IsLoading:
		account = styles.muted.Render("...")
	case st.User != nil:
		account = styles.muted.Render(st.User.Name())
	default:
		account = link("Login", LoginView) + " · " + link("Sign Up", RegisterView)
	}
	return fmt.Sprintf("%s  %s  │  %s", styles.brand.Render("Vibra"), strings.Join(links, " · "), account)
}

func (m *Model) renderBody() string {
	if m.guard != nil && !m.started {
		return styles.muted.Render(guard.Placeholder)
	}

	switch m.view {
	case HomeView:
		return m.renderHome()
	case LoginView:
		return styles.title.Render("Welcome back") + "\n" + m.login.view()
	case RegisterView:
		return styles.title.Render("Create your account") + "\n" + m.register.view()
	case PlaylistsView:
		return m.renderPlaylists()
	case PlaylistDetailView:
		return m.renderDetail()
	case RecommendationsView:
		return m.renderRecommendations()
	default:
		return ""
	}
}

func (m *Model) renderHome() string {
	if m.picking {
		return m.picker.View()
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Discover Music") + "\n")
	if m.searching {
		b.WriteString("Search: " + m.search.View() + "\n")
	} else if m.query != "" {
		b.WriteString("Search: " + m.query + "\n")
	}

	pills := make([]string, len(Genres))
	for i, g := range Genres {
		pills[i] = g
		if g == m.genre {
			pills[i] = styles.active.Render(g)
		}
	}
	b.WriteString(styles.muted.Render("Genre: ") + strings.Join(pills, "  ") + "\n\n")

	if m.query == "" && m.genre == "" && len(m.trending) > 0 {
		b.WriteString(styles.brand.Render("Trending Now") + "\n")
		for i, t := range m.trending {
			if i == trendingShown {
				break
			}
			b.WriteString(fmt.Sprintf("  %d. %s · %s\n", i+1, t.Title, t.ArtistName))
		}
		b.WriteString("\n")
	}

	switch {
	case m.tracksLoading:
		b.WriteString(styles.muted.Render("Loading tracks..."))
	case len(m.tracks.Items()) == 0:
		b.WriteString(styles.brand.Render(m.tracksTitle()) + "\n" + styles.muted.Render("No tracks found"))
	default:
		b.WriteString(m.tracks.View())
		b.WriteString("\n" + styles.muted.Render(fmt.Sprintf("Page %d", m.page)))
	}
	return b.String()
}

func (m *Model) renderPlaylists() string {
	if m.creating {
		return styles.title.Render("Create New Playlist") + "\n" + m.createForm.view()
	}

	switch {
	case m.playlistsLoading:
		return styles.muted.Render("Loading playlists...")
	case len(m.playlists.Items()) == 0:
		return styles.title.Render("Your Playlists") + "\n" +
			"You don't have any playlists yet.\n" + styles.help.Render("Press c to create your first playlist.")
	default:
		return m.playlists.View()
	}
}

func (m *Model) renderDetail() string {
	switch {
	case m.detailLoading:
		return styles.muted.Render("Loading playlist...")
	case m.detail == nil:
		return styles.err.Render("Playlist not found")
	}

	p := m.detail.Playlist
	tracks := m.detail.Ordered()
	export := models.PlaylistExport{Playlist: p, Tracks: tracks}

	var b strings.Builder
	b.WriteString(styles.title.Render(p.Name) + "\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	}
	b.WriteString(styles.muted.Render(fmt.Sprintf("%d songs • %d min • %s",
		len(tracks), export.TotalDuration()/60, shared.VisibilityString(p.IsPublic))) + "\n\n")

	if m.confirmDelete {
		b.WriteString(styles.warn.Render("Are you sure you want to delete this playlist? (y/n)") + "\n\n")
	}

	if len(tracks) == 0 {
		b.WriteString("This playlist is empty. Add some tracks!")
		return b.String()
	}
	b.WriteString(m.detailTracks.View())
	return b.String()
}

func (m *Model) renderRecommendations() string {
	if m.picking {
		return m.picker.View()
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Made For You") + "\n")
	b.WriteString(styles.muted.Render("Personalized recommendations based on your listening history") + "\n\n")

	switch {
	case m.recsLoading:
		b.WriteString(styles.muted.Render("Loading recommendations..."))
	case len(m.recs.Items()) == 0:
		b.WriteString("Start listening to tracks to get personalized recommendations!")
	default:
		if m.recsReason != "" {
			b.WriteString(styles.help.Render(m.recsReason) + "\n")
		}
		b.WriteString(m.recs.View())
	}
	return b.String()
}

// contextKeys returns the bindings that apply to the active view.
func (m *Model) contextKeys() []key.Binding {
	k := m.keys
	nav := []key.Binding{k.home, k.playlists, k.forYou}
	if m.authenticated() {
		nav = append(nav, k.logout)
	} else {
		nav = append(nav, k.login, k.signUp)
	}

	switch {
	case m.view == LoginView || m.view == RegisterView:
		return []key.Binding{k.next, k.enter, k.back}
	case m.creating:
		return []key.Binding{k.next, k.enter, k.back}
	case m.searching:
		return []key.Binding{k.enter, k.back}
	case m.picking:
		return []key.Binding{k.up, k.down, k.enter, k.back}
	case m.confirmDelete:
		return []key.Binding{k.yes, k.no}
	case !m.started:
		return []key.Binding{k.quit}
	}

	var local []key.Binding
	switch m.view {
	case HomeView:
		local = []key.Binding{k.search, k.genre, k.prevPage, k.nextPage, k.add}
	case PlaylistsView:
		local = []key.Binding{k.enter, k.create, k.refresh}
	case PlaylistDetailView:
		local = []key.Binding{k.remove, k.delete, k.back}
	case RecommendationsView:
		local = []key.Binding{k.add, k.refresh}
	}
	return append(append(local, nav...), k.quit)
}
