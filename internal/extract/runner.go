package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

var (
	// ErrBusy is returned when an extraction is already in flight.
	ErrBusy = errors.New("an extraction is already in progress")
	// ErrAbandoned is returned when a finished extraction was no longer
	// wanted and its entries were discarded.
	ErrAbandoned = errors.New("extraction abandoned")
)

// Committer receives extracted entries. *store.Store satisfies it.
type Committer interface {
	AddEntries(entries ...relief.Entry) error
}

// Runner guards extractions for one board. At most one extraction runs at a
// time: a Submit while another is in flight fails with ErrBusy and makes no
// remote call. Abandon marks the in-flight extraction as unwanted; when it
// finishes its entries are dropped instead of committed. Store mutations are
// never blocked by a running extraction.
type Runner struct {
	extractor *Extractor
	store     Committer

	mu      sync.Mutex
	running bool
	// generation changes on every Submit and Abandon. A result is committed
	// only if the generation it started with is still current.
	generation uint64
}

// NewRunner creates a runner committing into store.
func NewRunner(extractor *Extractor, store Committer) *Runner {
	return &Runner{extractor: extractor, store: store}
}

// Busy reports whether an extraction is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Abandon discards the result of the in-flight extraction, if any.
func (r *Runner) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.generation++
		log.Println("In-flight extraction abandoned")
	}
}

// Submit extracts entries from text and prepends them to the store. It
// returns the committed entries. On extraction failure nothing is committed.
// A persistence failure after commit is returned wrapped, with the entries.
func (r *Runner) Submit(ctx context.Context, text string) ([]relief.Entry, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.running = true
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	entries, err := r.extractor.Extract(ctx, text)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false

	if gen != r.generation || ctx.Err() != nil {
		log.Printf("Discarding %d extracted entries from an abandoned request", len(entries))
		return nil, ErrAbandoned
	}
	if err != nil {
		log.Printf("Extraction failed: %v", err)
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if err := r.store.AddEntries(entries...); err != nil {
		return entries, fmt.Errorf("committing extracted entries: %w", err)
	}
	return entries, nil
}
