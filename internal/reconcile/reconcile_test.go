package reconcile

import (
	"reflect"
	"testing"

	"srcbook/internal/store"
)

func runs(ids ...string) []store.PendingRun {
	out := make([]store.PendingRun, len(ids))
	for i, id := range ids {
		out[i] = store.PendingRun{ID: id, Weblink: "https://www.speedrun.com/run/" + id}
	}
	return out
}

func bookedBy(r store.PendingRun) string {
	if r.BookedBy == nil {
		return ""
	}
	return *r.BookedBy
}

func TestMergeBookings(t *testing.T) {
	live := runs("a", "b")
	claims := map[string]string{"a": "mod1"}

	got := MergeBookings(claims, live)

	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if got[0].ID != "a" || bookedBy(got[0]) != "mod1" {
		t.Errorf("got %+v, want a booked by mod1", got[0])
	}
	if got[1].ID != "b" || got[1].BookedBy != nil {
		t.Errorf("got %+v, want b unbooked", got[1])
	}
}

func TestMergeBookings_PreservesOrderAndLength(t *testing.T) {
	tests := []struct {
		name   string
		live   []store.PendingRun
		claims map[string]string
	}{
		{"empty live", nil, map[string]string{"x": "mod"}},
		{"no claims", runs("c", "a", "b"), nil},
		{"all claimed", runs("c", "a"), map[string]string{"a": "m1", "c": "m2"}},
		{"claims for missing runs", runs("z"), map[string]string{"gone": "m1", "z": "m3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeBookings(tt.claims, tt.live)
			if len(got) != len(tt.live) {
				t.Fatalf("got %d runs, want %d", len(got), len(tt.live))
			}
			for i := range got {
				if got[i].ID != tt.live[i].ID {
					t.Errorf("position %d: got id %s, want %s", i, got[i].ID, tt.live[i].ID)
				}
				want, ok := tt.claims[got[i].ID]
				if ok && bookedBy(got[i]) != want {
					t.Errorf("run %s: got booked_by %q, want %q", got[i].ID, bookedBy(got[i]), want)
				}
				if !ok && got[i].BookedBy != nil {
					t.Errorf("run %s: expected no booking, got %q", got[i].ID, *got[i].BookedBy)
				}
			}
		})
	}
}

func TestMergeBookings_IgnoresUpstreamBookedBy(t *testing.T) {
	forged := "attacker"
	live := []store.PendingRun{{ID: "a", BookedBy: &forged}}

	got := MergeBookings(map[string]string{}, live)
	if got[0].BookedBy != nil {
		t.Errorf("expected upstream booked_by to be discarded, got %q", *got[0].BookedBy)
	}
	if live[0].BookedBy == nil || *live[0].BookedBy != "attacker" {
		t.Error("input slice was mutated")
	}
}

func TestMergeBookingsByGame(t *testing.T) {
	live := map[string][]store.PendingRun{
		"game1": runs("a", "b"),
		"game2": runs("c"),
	}
	claims := map[string]string{"b": "mod1", "c": "mod2"}

	got := MergeBookingsByGame(claims, live)

	if len(got) != 2 {
		t.Fatalf("got %d games, want 2", len(got))
	}
	if got["game1"][0].BookedBy != nil || bookedBy(got["game1"][1]) != "mod1" {
		t.Errorf("game1 merged incorrectly: %+v", got["game1"])
	}
	if bookedBy(got["game2"][0]) != "mod2" {
		t.Errorf("game2 merged incorrectly: %+v", got["game2"])
	}
}

func TestFilterStillPending(t *testing.T) {
	stored := runs("d", "a", "x", "b")
	live := runs("a", "b", "c")

	got := FilterStillPending(stored, live)

	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
}

func TestStaleIDs(t *testing.T) {
	tests := []struct {
		name   string
		stored Set
		live   Set
		want   []string
	}{
		{"nothing stored", NewSet(), NewSet("a"), []string{}},
		{"all live", NewSet("a", "b"), NewSet("a", "b", "c"), []string{}},
		{"some stale", NewSet("a", "b", "c"), NewSet("b"), []string{"a", "c"}},
		{"empty live", NewSet("a"), NewSet(), []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stale := StaleIDs(tt.stored, tt.live)

			if got := stale.Sorted(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			for id := range stale {
				if tt.live.Has(id) {
					t.Errorf("stale id %s is live", id)
				}
			}
			for id := range tt.stored {
				if !stale.Has(id) && !tt.live.Has(id) {
					t.Errorf("kept id %s is not live", id)
				}
			}
		})
	}
}

func TestLiveIDs(t *testing.T) {
	got := LiveIDs(map[string][]store.PendingRun{
		"g1": runs("a", "b"),
		"g2": runs("b", "c"),
	})
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got.Sorted(), want) {
		t.Errorf("got %v, want %v", got.Sorted(), want)
	}
}
