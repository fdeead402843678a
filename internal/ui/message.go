package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/session"
	"github.com/desertthunder/vibra/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// Messages produced by a fetch carry the [tasks.Ticket] issued when the fetch started;
// [Model.Update] drops them once the ticket is no longer current.
type Msg struct {
	kind   MsgKind
	ticket tasks.Ticket
	stream string // scope stream that issued ticket, for kinds shared by several lists
	data   any
	err    error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgSessionClosed
	MsgTracksFetched
	MsgTrendingFetched
	MsgPlaylistsFetched
	MsgPlaylistFetched
	MsgRecommendationsFetched
	MsgAuthCompleted
	MsgMutationCompleted
)

// Kind reports which variant m is.
func (m Msg) Kind() MsgKind { return m.kind }

// Err is the error carried by a completion, if any.
func (m Msg) Err() error { return m.err }

// mutation names a write made from a view.
type mutation int

const (
	mutationPlay mutation = iota
	mutationAddToPlaylist
	mutationRemoveFromPlaylist
	mutationCreatePlaylist
	mutationDeletePlaylist
)

func (k mutation) String() string {
	switch k {
	case mutationPlay:
		return "record play"
	case mutationAddToPlaylist:
		return "add track"
	case mutationRemoveFromPlaylist:
		return "remove track"
	case mutationCreatePlaylist:
		return "create playlist"
	case mutationDeletePlaylist:
		return "delete playlist"
	default:
		return "update"
	}
}

// SessionChanged wraps a session snapshot so it can be sent to a running program.
func SessionChanged(state session.State) Msg {
	return Msg{kind: MsgSessionChanged, data: state}
}

// sessionClosedMsg is sent when the session subscription ends.
func sessionClosedMsg() Msg {
	return Msg{kind: MsgSessionClosed}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(t tasks.Ticket, page *models.TrackPage, err error) Msg {
	return Msg{kind: MsgTracksFetched, ticket: t, data: page, err: err}
}

// trendingFetchedMsg is the constructor for [MsgTrendingFetched]
func trendingFetchedMsg(t tasks.Ticket, list *models.TrackList, err error) Msg {
	return Msg{kind: MsgTrendingFetched, ticket: t, data: list, err: err}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(t tasks.Ticket, stream string, list *models.PlaylistList, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, ticket: t, stream: stream, data: list, err: err}
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(t tasks.Ticket, detail *models.PlaylistDetail, err error) Msg {
	return Msg{kind: MsgPlaylistFetched, ticket: t, data: detail, err: err}
}

// recommendationsFetchedMsg is the constructor for [MsgRecommendationsFetched]
func recommendationsFetchedMsg(t tasks.Ticket, list *models.TrackList, err error) Msg {
	return Msg{kind: MsgRecommendationsFetched, ticket: t, data: list, err: err}
}

// authCompletedMsg is the constructor for [MsgAuthCompleted]
func authCompletedMsg(t tasks.Ticket, user *models.User, err error) Msg {
	return Msg{kind: MsgAuthCompleted, ticket: t, data: user, err: err}
}

// mutationCompletedMsg is the constructor for [MsgMutationCompleted]
func mutationCompletedMsg(t tasks.Ticket, kind mutation, err error) Msg {
	return Msg{kind: MsgMutationCompleted, ticket: t, data: kind, err: err}
}
