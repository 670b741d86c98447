package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

var errUnparsableOutput = errors.New("yt-dlp produced no parsable output")

// MusicLookup queries YouTube Music for track metadata
type MusicLookup struct{}

// Lookup returns the first track with a video id
func (MusicLookup) Lookup(ctx context.Context, query string) (Track, bool, error) {
	type result struct {
		track Track
		ok    bool
		err   error
	}

	// the ytmusic client takes no context
	done := make(chan result, 1)
	go func() {
		r, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			done <- result{err: err}
			return
		}
		for _, t := range r.Tracks {
			if t.VideoID == "" {
				continue
			}
			track := Track{Title: t.Title}
			if len(t.Artists) > 0 {
				track.Artist = t.Artists[0].Name
			}
			done <- result{track: track, ok: true}
			return
		}
		done <- result{}
	}()

	select {
	case <-ctx.Done():
		return Track{}, false, ctx.Err()
	case res := <-done:
		return res.track, res.ok, res.err
	}
}

// NativeSearch searches YouTube without spawning yt-dlp
type NativeSearch struct{}

// Name implements Searcher
func (NativeSearch) Name() string { return "ytsearch" }

// Search implements Searcher
func (NativeSearch) Search(ctx context.Context, query string) ([]Candidate, error) {
	c := ytsearch.NewClient(nil)
	r, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(r.Results))
	for _, v := range r.Results {
		if v.VideoID == "" {
			continue
		}
		out = append(out, Candidate{URL: watchURLPrefix + v.VideoID, Title: v.Title})
	}
	return out, nil
}

// YtdlpSearch uses the yt-dlp "ytsearch" extractor
type YtdlpSearch struct {
	Limit int
}

// Name implements Searcher
func (YtdlpSearch) Name() string { return "yt-dlp" }

// Search implements Searcher
func (s YtdlpSearch) Search(ctx context.Context, query string) ([]Candidate, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 1
	}

	res, err := ytdlp.New().
		FlatPlaylist().
		Print("%(url)s\t%(title)s").
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		NoWarnings().
		IgnoreConfig().
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, err
	}

	return parseSearchOutput(res.Stdout), nil
}

// YtdlpExtractor resolves direct stream URLs with yt-dlp
type YtdlpExtractor struct{}

// Extract implements Extractor
func (YtdlpExtractor) Extract(ctx context.Context, pageURL string, kind entities.MediaKind) (Extraction, error) {
	format := "bestaudio/best"
	if kind == entities.MediaKindVideo {
		format = "best"
	}

	res, err := ytdlp.New().
		Print("%(url)s\t%(title)s\t%(duration)s\t%(id)s").
		Format(format).
		NoPlaylist().
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", pageURL)
	if err != nil {
		return Extraction{}, err
	}

	return parseExtractOutput(res.Stdout)
}

func parseSearchOutput(stdout string) []Candidate {
	ls := strings.Split(strings.TrimSpace(stdout), "\n")
	out := make([]Candidate, 0, len(ls))
	for _, l := range ls {
		ps := strings.Split(l, "\t")
		if len(ps) < 2 || ps[0] == "" || ps[0] == "NA" {
			continue
		}
		out = append(out, Candidate{URL: ps[0], Title: ps[1]})
	}
	return out
}

func parseExtractOutput(stdout string) (Extraction, error) {
	for _, l := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(l, "\t")
		if len(ps) < 4 || ps[0] == "" || ps[0] == "NA" {
			continue
		}
		ext := Extraction{StreamURL: ps[0], Title: ps[1], ID: ps[3]}
		if ext.ID == "NA" {
			ext.ID = ""
		}
		if d, err := time.ParseDuration(ps[2] + "s"); err == nil && d > 0 {
			ext.Duration, ext.DurationKnown = d, true
		}
		return ext, nil
	}
	return Extraction{}, errUnparsableOutput
}
