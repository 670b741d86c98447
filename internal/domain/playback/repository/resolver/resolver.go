// Package resolver turns search queries and URLs into playable queue items
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
	"github.com/ahmadraza76/Rolavibe/internal/infrastructure/metrics"
)

// Track is a metadata hit used to build a better search query
type Track struct {
	Title  string
	Artist string
}

// Candidate is a search hit that still has to be extracted
type Candidate struct {
	URL   string
	Title string
}

// Extraction is a playable stream produced by the extractor
type Extraction struct {
	StreamURL string
	Title     string
	ID        string
	Duration  time.Duration
	// DurationKnown is false for live streams and unparsable durations
	DurationKnown bool
}

// MetadataLookup finds canonical track metadata for a free-text query
type MetadataLookup interface {
	Lookup(ctx context.Context, query string) (Track, bool, error)
}

// Searcher returns candidates for a query, best first
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// Extractor turns a page URL into a direct stream URL
type Extractor interface {
	Extract(ctx context.Context, pageURL string, kind entities.MediaKind) (Extraction, error)
}

// Resolver implements deps.MediaResolver
type Resolver struct {
	lookup    MetadataLookup
	searchers []Searcher
	extractor Extractor
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewResolver creates a resolver. Searchers are tried in order until one returns a candidate.
func NewResolver(
	lookup MetadataLookup,
	extractor Extractor,
	limiter *rate.Limiter,
	m *metrics.Metrics,
	logger zerolog.Logger,
	searchers ...Searcher,
) *Resolver {
	return &Resolver{
		lookup:    lookup,
		searchers: searchers,
		extractor: extractor,
		limiter:   limiter,
		metrics:   m,
		logger:    logger.With().Str("component", "media-resolver").Logger(),
	}
}

// ResolveByQuery looks up metadata, searches and extracts the first candidate
func (r *Resolver) ResolveByQuery(ctx context.Context, query string) (entities.QueueItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return entities.QueueItem{}, playbackerrors.ErrEmptyQuery
	}

	start := time.Now()
	item, err := r.resolveByQuery(ctx, query)
	r.observe(start, err)
	return item, err
}

func (r *Resolver) resolveByQuery(ctx context.Context, query string) (entities.QueueItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return entities.QueueItem{}, err
	}

	searchQuery := query
	if r.lookup != nil {
		track, ok, err := r.lookup.Lookup(ctx, query)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return entities.QueueItem{}, ctxErr
			}
			r.logger.Warn().Err(err).Str("query", query).Msg("Metadata lookup failed, searching raw query")
		case ok:
			searchQuery = strings.TrimSpace(track.Title + " " + track.Artist)
			r.logger.Debug().Str("query", query).Str("search_query", searchQuery).Msg("Metadata lookup hit")
		}
	}

	candidate, err := r.firstCandidate(ctx, searchQuery)
	if err != nil {
		return entities.QueueItem{}, err
	}

	ext, err := r.extractor.Extract(ctx, candidate.URL, entities.MediaKindAudio)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.QueueItem{}, ctxErr
		}
		r.logger.Warn().Err(err).Str("url", candidate.URL).Msg("Extraction failed")
		return entities.QueueItem{}, fmt.Errorf("%w: %w", playbackerrors.ErrNotFound, err)
	}

	r.warnUnknownDuration(ext, candidate.URL)
	return toItem(ext, candidate.Title, entities.MediaKindAudio), nil
}

// ResolveByURL extracts a video stream straight from a page URL
func (r *Resolver) ResolveByURL(ctx context.Context, rawURL string) (entities.QueueItem, error) {
	start := time.Now()
	item, err := r.resolveByURL(ctx, strings.TrimSpace(rawURL))
	r.observe(start, err)
	return item, err
}

func (r *Resolver) resolveByURL(ctx context.Context, rawURL string) (entities.QueueItem, error) {
	if rawURL == "" {
		return entities.QueueItem{}, playbackerrors.ErrEmptyQuery
	}
	if !validURL(rawURL) {
		return entities.QueueItem{}, playbackerrors.ErrInvalidURL
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return entities.QueueItem{}, err
	}

	ext, err := r.extractor.Extract(ctx, rawURL, entities.MediaKindVideo)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.QueueItem{}, ctxErr
		}
		r.logger.Warn().Err(err).Str("url", rawURL).Msg("Extraction failed")
		return entities.QueueItem{}, fmt.Errorf("%w: %w", playbackerrors.ErrInvalidURL, err)
	}

	r.warnUnknownDuration(ext, rawURL)
	return toItem(ext, "", entities.MediaKindVideo), nil
}

func (r *Resolver) firstCandidate(ctx context.Context, query string) (Candidate, error) {
	for _, s := range r.searchers {
		candidates, err := s.Search(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Candidate{}, ctxErr
			}
			r.logger.Warn().Err(err).Str("searcher", s.Name()).Str("query", query).Msg("Search failed")
			continue
		}
		for _, c := range candidates {
			if c.URL != "" {
				return c, nil
			}
		}
	}
	return Candidate{}, playbackerrors.ErrNotFound
}

// warnUnknownDuration flags items that pass the duration limit only because
// their length is unknown
func (r *Resolver) warnUnknownDuration(ext Extraction, pageURL string) {
	if ext.DurationKnown {
		return
	}
	r.logger.Warn().
		Str("media_id", ext.ID).
		Str("url", pageURL).
		Msg("Duration unknown, duration limit not applied")
}

func (r *Resolver) observe(start time.Time, err error) {
	r.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}

	label := "other"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		label = "timeout"
	case errors.Is(err, playbackerrors.ErrNotFound):
		label = "not_found"
	case errors.Is(err, playbackerrors.ErrInvalidURL):
		label = "invalid_url"
	case errors.Is(err, playbackerrors.ErrEmptyQuery):
		label = "empty_query"
	}
	r.metrics.ResolveErrors.WithLabelValues(label).Inc()
}

func toItem(ext Extraction, fallbackTitle string, kind entities.MediaKind) entities.QueueItem {
	title := ext.Title
	if title == "" {
		title = fallbackTitle
	}
	return entities.QueueItem{
		StreamURL: ext.StreamURL,
		Title:     title,
		MediaID:   ext.ID,
		Kind:      kind,
		Duration:  ext.Duration,
	}
}

func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
