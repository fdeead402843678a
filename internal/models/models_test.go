package models

import "testing"

func TestReconcileTracks(t *testing.T) {
	tracks := []Track{
		{ID: 2, Title: "Two"},
		{ID: 5, Title: "Five"},
	}

	tc := []struct {
		name string
		ids  []int
		want []int
	}{
		{name: "drops missing ids and keeps order", ids: []int{5, 9, 2}, want: []int{5, 2}},
		{name: "empty id list", ids: nil, want: []int{}},
		{name: "all ids missing", ids: []int{7, 8}, want: []int{}},
		{name: "repeated ids", ids: []int{2, 2, 5}, want: []int{2, 2, 5}},
		{name: "reversed", ids: []int{2, 5}, want: []int{2, 5}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileTracks(tt.ids, tracks)
			if len(got) != len(tt.want) {
				t.Fatalf("ReconcileTracks() returned %d tracks, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("ReconcileTracks()[%d] = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}

	t.Run("Ordered uses playlist track ids", func(t *testing.T) {
		detail := PlaylistDetail{
			Playlist: Playlist{TrackIDs: []int{5, 9, 2}},
			Tracks:   tracks,
		}

		got := detail.Ordered()
		if len(got) != 2 || got[0].Title != "Five" || got[1].Title != "Two" {
			t.Errorf("Ordered() = %+v, want [Five Two]", got)
		}
	})
}

func TestPlaylistExportTotalDuration(t *testing.T) {
	export := PlaylistExport{Tracks: []Track{{Duration: 90}, {Duration: 150}}}
	if got := export.TotalDuration(); got != 240 {
		t.Errorf("TotalDuration() = %d, want 240", got)
	}
}

func TestUserName(t *testing.T) {
	tc := []struct {
		name string
		user *User
		want string
	}{
		{name: "nil user", user: nil, want: ""},
		{name: "display name", user: &User{DisplayName: "A B", Username: "ab"}, want: "A B"},
		{name: "username fallback", user: &User{Username: "ab", Email: "a@b.com"}, want: "ab"},
		{name: "email fallback", user: &User{Email: "a@b.com"}, want: "a@b.com"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
