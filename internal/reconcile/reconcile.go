// Package reconcile merges the live pending-run set fetched from speedrun.com with
// local booking state. Nothing in here performs I/O or mutates its inputs.
package reconcile

import (
	"sort"

	"srcbook/internal/store"
)

// Set is a set of run ids.
type Set map[string]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IDs returns the set of ids in runs.
func IDs(runs []store.PendingRun) Set {
	s := make(Set, len(runs))
	for _, r := range runs {
		s[r.ID] = struct{}{}
	}
	return s
}

// LiveIDs returns the union of run ids across every leaderboard.
func LiveIDs(byGame map[string][]store.PendingRun) Set {
	s := make(Set)
	for _, runs := range byGame {
		for _, r := range runs {
			s[r.ID] = struct{}{}
		}
	}
	return s
}

// MergeBookings returns a copy of live with BookedBy set from claims.
// Output order and length match live. Claims for ids not in live are dropped;
// they are cleanup candidates, see StaleIDs.
func MergeBookings(claims map[string]string, live []store.PendingRun) []store.PendingRun {
	out := make([]store.PendingRun, len(live))
	for i, run := range live {
		run.BookedBy = nil
		if by, ok := claims[run.ID]; ok {
			by := by
			run.BookedBy = &by
		}
		out[i] = run
	}
	return out
}

// MergeBookingsByGame applies MergeBookings to each leaderboard independently.
func MergeBookingsByGame(claims map[string]string, liveByGame map[string][]store.PendingRun) map[string][]store.PendingRun {
	out := make(map[string][]store.PendingRun, len(liveByGame))
	for game, runs := range liveByGame {
		out[game] = MergeBookings(claims, runs)
	}
	return out
}

// FilterStillPending keeps the stored runs whose id is still in live,
// preserving stored order.
func FilterStillPending(stored, live []store.PendingRun) []store.PendingRun {
	ids := IDs(live)
	out := make([]store.PendingRun, 0, len(stored))
	for _, run := range stored {
		if ids.Has(run.ID) {
			out = append(out, run)
		}
	}
	return out
}

// StaleIDs returns stored - live.
func StaleIDs(stored, live Set) Set {
	stale := make(Set)
	for id := range stored {
		if !live.Has(id) {
			stale[id] = struct{}{}
		}
	}
	return stale
}
