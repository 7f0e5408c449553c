package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/reliefboard/internal/config"
	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// maxConcurrentFeeds bounds parallel feed downloads.
const maxConcurrentFeeds = 4

// Ledger remembers which feed items were already extracted.
// *database.DB satisfies it.
type Ledger interface {
	IsIntakeItemProcessed(guid string) (bool, error)
	MarkIntakeItemProcessed(guid, source, title string, entryCount int, extractErr error) error
}

// Submitter extracts text and commits the resulting entries.
// *extract.Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, text string) ([]relief.Entry, error)
}

// Result holds the results of an intake run.
type Result struct {
	Feeds       int
	FeedErrors  int
	Items       int
	AlreadySeen int
	Extracted   int
	Entries     int
	Failed      int
}

// Collector pulls new items from the configured feeds and runs each through
// extraction exactly once.
type Collector struct {
	ledger   Ledger
	submit   Submitter
	pages    *PageFetcher
	feeds    []config.Feed
	maxItems int
	timeout  time.Duration
}

// NewCollector creates a feed collector.
func NewCollector(cfg config.Intake, ledger Ledger, submit Submitter) *Collector {
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	return &Collector{
		ledger:   ledger,
		submit:   submit,
		pages:    NewPageFetcher(timeout),
		feeds:    cfg.Feeds,
		maxItems: cfg.MaxItemsPerFeed,
		timeout:  timeout,
	}
}

// Collect fetches every feed concurrently, then extracts the unseen items one
// at a time. A failing feed is logged and skipped.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Feeds: len(c.feeds)}
	if len(c.feeds) == 0 {
		log.Println("No intake feeds configured")
		return r, nil
	}

	perFeed := make([][]FeedItem, len(c.feeds))
	feedErrs := make([]error, len(c.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)
	for i, fc := range c.feeds {
		g.Go(func() error {
			fctx := gctx
			if c.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, c.timeout)
				defer cancel()
			}
			parser := gofeed.NewParser()
			items, err := parseFeed(fctx, parser, fc, c.maxItems)
			if err != nil {
				feedErrs[i] = err
				return nil
			}
			perFeed[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r, err
	}
	if err := ctx.Err(); err != nil {
		return r, err
	}

	for i, fc := range c.feeds {
		if feedErrs[i] != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, feedErrs[i])
			r.FeedErrors++
			continue
		}
		log.Printf("Parsed %d items from %s", len(perFeed[i]), fc.URL)

		for _, item := range perFeed[i] {
			r.Items++
			if err := c.process(ctx, item, r); err != nil {
				return r, err
			}
		}
	}

	log.Printf("Intake complete: %d items, %d new, %d entries, %d failed",
		r.Items, r.Extracted, r.Entries, r.Failed)
	return r, nil
}

// process extracts one item unless the ledger has seen it. Only errors that
// should stop the run are returned.
func (c *Collector) process(ctx context.Context, item FeedItem, r *Result) error {
	seen, err := c.ledger.IsIntakeItemProcessed(item.GUID)
	if err != nil {
		return fmt.Errorf("checking intake ledger: %w", err)
	}
	if seen {
		r.AlreadySeen++
		return nil
	}

	text := c.itemText(ctx, item)
	entries, extractErr := c.submit.Submit(ctx, text)
	switch {
	case errors.Is(extractErr, extract.ErrNoProvider), errors.Is(extractErr, extract.ErrBusy),
		errors.Is(extractErr, extract.ErrAbandoned), ctx.Err() != nil:
		// Local conditions: leave the item for the next run.
		r.Failed++
		log.Printf("Skipping %q for now: %v", item.Title, extractErr)
		return ctx.Err()
	case extractErr != nil:
		r.Failed++
		log.Printf("Extraction failed for %q: %v", item.Title, extractErr)
	default:
		r.Extracted++
		r.Entries += len(entries)
		log.Printf("Extracted %d entries from %q", len(entries), item.Title)
	}

	if err := c.ledger.MarkIntakeItemProcessed(item.GUID, item.Source, item.Title, len(entries), extractErr); err != nil {
		return fmt.Errorf("recording intake item: %w", err)
	}
	return nil
}

// itemText is the text sent for extraction. Items whose feed carries no body
// fall back to the linked page.
func (c *Collector) itemText(ctx context.Context, item FeedItem) string {
	body := item.Text
	if body == "" && item.Link != "" {
		text, err := c.pages.PageText(ctx, item.Link)
		if err != nil {
			log.Printf("No page text for %s: %v", item.Link, err)
		}
		body = text
	}

	parts := []string{}
	if item.Title != "" && !strings.HasPrefix(body, item.Title) {
		parts = append(parts, item.Title)
	}
	if body != "" {
		parts = append(parts, body)
	}
	if item.Link != "" {
		parts = append(parts, item.Link)
	}
	return strings.Join(parts, "\n")
}
