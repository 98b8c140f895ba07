package sync

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
)

type Result string

const (
	ResultDownloaded Result = "downloaded"
	ResultUploaded   Result = "uploaded"
	ResultSkipped    Result = "skipped"
	ResultConflict   Result = "conflict"
	ResultFailed     Result = "failed"
)

// Outcome is what happened to one record during a pass.
type Outcome struct {
	RecordID string
	Path     string
	Result   Result
	Err      error
}

// Pair is a correlated record and document.
type Pair struct {
	CollectionID string
	Record       *notion.Page
	Document     *vault.Document
}

func (p *Pair) ID() string {
	return p.Record.ID
}

// CollectionRun accumulates the outcomes of one binding. It is owned by the
// goroutine syncing that binding. All methods accept a nil receiver, which
// discards the outcome.
type CollectionRun struct {
	CollectionID string
	Path         string
	Outcomes     []Outcome
	Conflicts    []*Pair
	Err          error
}

func (c *CollectionRun) add(o Outcome) {
	if c == nil {
		return
	}
	c.Outcomes = append(c.Outcomes, o)
}

func (c *CollectionRun) downloaded(id, path string) {
	c.add(Outcome{RecordID: id, Path: path, Result: ResultDownloaded})
}

func (c *CollectionRun) uploaded(id, path string) {
	c.add(Outcome{RecordID: id, Path: path, Result: ResultUploaded})
}

func (c *CollectionRun) skipped(id, path string) {
	c.add(Outcome{RecordID: id, Path: path, Result: ResultSkipped})
}

func (c *CollectionRun) failed(id, path string, err error) {
	c.add(Outcome{RecordID: id, Path: path, Result: ResultFailed, Err: err})
}

func (c *CollectionRun) conflict(pair *Pair) {
	if c == nil {
		return
	}
	c.Conflicts = append(c.Conflicts, pair)
	c.add(Outcome{RecordID: pair.ID(), Path: pair.Document.Path, Result: ResultConflict})
}

func (c *CollectionRun) ids(result Result) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, o := range c.Outcomes {
		if o.Result == result {
			out = append(out, o.RecordID)
		}
	}
	return out
}

// Run is the result of one sync pass.
type Run struct {
	ID          string
	Force       Direction
	StartedAt   time.Time
	FinishedAt  time.Time
	Collections []*CollectionRun
}

func (r *Run) collect(result Result) []string {
	var out []string
	for _, c := range r.Collections {
		out = append(out, c.ids(result)...)
	}
	return out
}

func (r *Run) Downloaded() []string { return r.collect(ResultDownloaded) }
func (r *Run) Uploaded() []string   { return r.collect(ResultUploaded) }
func (r *Run) Skipped() []string    { return r.collect(ResultSkipped) }
func (r *Run) Failed() []string     { return r.collect(ResultFailed) }

func (r *Run) Conflicts() []*Pair {
	var out []*Pair
	for _, c := range r.Collections {
		out = append(out, c.Conflicts...)
	}
	return out
}

// touched is every record id the pass reached a decision on.
func (r *Run) touched() mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, c := range r.Collections {
		for _, o := range c.Outcomes {
			set.Add(normalizeID(o.RecordID))
		}
	}
	return set
}

type Summary struct {
	Downloaded int `json:"downloaded"`
	Uploaded   int `json:"uploaded"`
	Skipped    int `json:"skipped"`
	Conflicts  int `json:"conflicts"`
	Failed     int `json:"failed"`
	// FailedCollections counts bindings whose fetch failed outright.
	FailedCollections int `json:"failedCollections"`
}

func (r *Run) Summary() Summary {
	var s Summary
	for _, c := range r.Collections {
		if c.Err != nil {
			s.FailedCollections++
		}
		for _, o := range c.Outcomes {
			switch o.Result {
			case ResultDownloaded:
				s.Downloaded++
			case ResultUploaded:
				s.Uploaded++
			case ResultSkipped:
				s.Skipped++
			case ResultConflict:
				s.Conflicts++
			case ResultFailed:
				s.Failed++
			}
		}
	}
	return s
}
