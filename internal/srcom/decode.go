package srcom

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"srcbook/internal/store"

	"github.com/sosodev/duration"
)

// DecodePolicy decides what happens to a run record that cannot be normalised.
type DecodePolicy string

const (
	// DecodeSkip drops the record and reports it in Batch.Skipped.
	DecodeSkip DecodePolicy = "skip"
	// DecodeAbort fails the whole fetch on the first bad record.
	DecodeAbort DecodePolicy = "abort"
)

// ParseDecodePolicy validates a policy name.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch DecodePolicy(s) {
	case DecodeSkip, DecodeAbort:
		return DecodePolicy(s), nil
	case "":
		return DecodeSkip, nil
	}
	return "", fmt.Errorf("unknown decode policy %q (want skip or abort)", s)
}

var errNoPlayers = errors.New("run has no players")

// RecordError describes one run record that could not be normalised.
type RecordError struct {
	RunID string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("run %s: %v", e.RunID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

type runsResource struct {
	Data []runRecord `json:"data"`
}

type runRecord struct {
	ID        string          `json:"id"`
	Weblink   string          `json:"weblink"`
	Comment   *string         `json:"comment"`
	Submitted *string         `json:"submitted"`
	Times     timesRecord     `json:"times"`
	Players   playersResource `json:"players"`
	Category  json.RawMessage `json:"category"`
}

type timesRecord struct {
	Primary string `json:"primary"`
}

type playersResource struct {
	Data []playerRecord `json:"data"`
}

type playerRecord struct {
	Rel      string    `json:"rel"`
	Name     string    `json:"name"` // guests only
	Weblink  string    `json:"weblink"`
	Names    names     `json:"names"`
	Location *location `json:"location"`
}

type names struct {
	International string `json:"international"`
}

type location struct {
	Country struct {
		Code string `json:"code"`
	} `json:"country"`
}

type categoryResource struct {
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

type modsResource struct {
	Data struct {
		Moderators struct {
			Data []struct {
				Names names `json:"names"`
			} `json:"data"`
		} `json:"moderators"`
	} `json:"data"`
}

func (m modsResource) moderatorNames() []string {
	out := make([]string, 0, len(m.Data.Moderators.Data))
	for _, mod := range m.Data.Moderators.Data {
		out = append(out, mod.Names.International)
	}
	return out
}

type profileResource struct {
	Data struct {
		Names names `json:"names"`
	} `json:"data"`
}

func decodeRuns(gameID string, records []runRecord, policy DecodePolicy) ([]store.PendingRun, []*RecordError, error) {
	runs := make([]store.PendingRun, 0, len(records))
	var skipped []*RecordError

	for _, rec := range records {
		run, err := toPendingRun(gameID, rec)
		if err != nil {
			recErr := &RecordError{RunID: rec.ID, Err: err}
			if policy == DecodeAbort {
				return nil, nil, fmt.Errorf("%w: %v", ErrDecode, recErr)
			}
			skipped = append(skipped, recErr)
			continue
		}
		runs = append(runs, run)
	}
	return runs, skipped, nil
}

func toPendingRun(gameID string, rec runRecord) (store.PendingRun, error) {
	if len(rec.Players.Data) == 0 {
		return store.PendingRun{}, errNoPlayers
	}

	times, err := FormatTimes(rec.Times.Primary)
	if err != nil {
		return store.PendingRun{}, err
	}

	player := rec.Players.Data[0]
	run := store.PendingRun{
		ID:         rec.ID,
		GameID:     gameID,
		Weblink:    rec.Weblink,
		PlayerName: player.Names.International,
		PlayerURL:  player.Weblink,
		Times:      times,
	}
	if run.PlayerName == "" {
		run.PlayerName = player.Name
	}
	if player.Location != nil {
		run.PlayerLocation = player.Location.Country.Code
	}
	if rec.Comment != nil {
		run.Comment = *rec.Comment
	}
	if rec.Submitted != nil {
		run.Submitted = *rec.Submitted
	}

	// Without embed=category the field is a bare id string; only the embedded
	// object carries a name.
	var cat categoryResource
	if len(rec.Category) > 0 && json.Unmarshal(rec.Category, &cat) == nil {
		run.Category = cat.Data.Name
	}

	return run, nil
}

// FormatTimes converts an ISO-8601 duration to HH:MM:SS, truncating to whole
// seconds. Hours are at least two digits and grow as needed.
func FormatTimes(iso string) (string, error) {
	d, err := duration.Parse(iso)
	if err != nil {
		return "", fmt.Errorf("invalid duration %q: %w", iso, err)
	}

	total := int64(d.ToTimeDuration() / time.Second)
	if total < 0 {
		return "", fmt.Errorf("negative duration %q", iso)
	}
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}
