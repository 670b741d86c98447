// Package statestore persists playback state as four independent JSON documents
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	playbackerrors "github.com/ahmadraza76/Rolavibe/internal/domain/playback/errors"
)

// Document names
const (
	DocQueue         = "queue.json"
	DocMaintenance   = "maintenance_mode.json"
	DocAdminCommands = "admin_commands.json"
	DocAllowedGroups = "allowed_groups.json"
)

// videoMarker is the optional fourth element of a queue entry for video items
const videoMarker = "video"

type adminCommandsDocument struct {
	AllowedAdminCommands []string `json:"allowed_admin_commands"`
}

// Store implements deps.StateStore and deps.AccessStore on top of a Backend.
// Writes of the same document are serialized.
type Store struct {
	backend Backend
	locks   map[string]*sync.Mutex
	logger  zerolog.Logger
}

// NewStore creates a document store
func NewStore(backend Backend, logger zerolog.Logger) *Store {
	locks := make(map[string]*sync.Mutex, 4)
	for _, name := range []string{DocQueue, DocMaintenance, DocAdminCommands, DocAllowedGroups} {
		locks[name] = &sync.Mutex{}
	}

	return &Store{
		backend: backend,
		locks:   locks,
		logger:  logger.With().Str("component", "state-store").Logger(),
	}
}

// Load implements deps.StateStore
func (s *Store) Load(ctx context.Context) entities.GlobalState {
	state := entities.NewGlobalState()

	var queues map[string][][]string
	if s.read(ctx, DocQueue, &queues) {
		for key, entries := range queues {
			chatID, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				s.logger.Warn().Str("chat_id", key).Msg("Skipping queue with malformed chat id")
				continue
			}

			session := &entities.ChatSession{ChatID: chatID}
			for i, entry := range entries {
				item, ok := decodeEntry(entry)
				if !ok {
					s.logger.Warn().Int64("chat_id", chatID).Int("index", i).Msg("Skipping malformed queue entry")
					continue
				}
				session.Queue = append(session.Queue, item)
			}
			if len(session.Queue) > 0 {
				state.Sessions[chatID] = session
			}
		}
	}

	var maintenance bool
	if s.read(ctx, DocMaintenance, &maintenance) {
		state.MaintenanceMode = maintenance
	}

	return state
}

// Save implements deps.StateStore. Both documents are attempted even if the
// first one fails.
func (s *Store) Save(ctx context.Context, state entities.GlobalState) error {
	queues := make(map[string][][]string, len(state.Sessions))
	for chatID, session := range state.Sessions {
		if session == nil || len(session.Queue) == 0 {
			continue
		}
		entries := make([][]string, 0, len(session.Queue))
		for _, item := range session.Queue {
			entries = append(entries, encodeEntry(item))
		}
		queues[strconv.FormatInt(chatID, 10)] = entries
	}

	return errors.Join(
		s.write(ctx, DocQueue, queues),
		s.write(ctx, DocMaintenance, state.MaintenanceMode),
	)
}

// LoadAdminCommands implements deps.AccessStore
func (s *Store) LoadAdminCommands(ctx context.Context) []string {
	var doc adminCommandsDocument
	if !s.read(ctx, DocAdminCommands, &doc) {
		return []string{}
	}
	if doc.AllowedAdminCommands == nil {
		return []string{}
	}
	return doc.AllowedAdminCommands
}

// SaveAdminCommands implements deps.AccessStore
func (s *Store) SaveAdminCommands(ctx context.Context, commands []string) error {
	sorted := append([]string{}, commands...)
	sort.Strings(sorted)
	return s.write(ctx, DocAdminCommands, adminCommandsDocument{AllowedAdminCommands: sorted})
}

// LoadAllowedGroups implements deps.AccessStore
func (s *Store) LoadAllowedGroups(ctx context.Context) map[int64]bool {
	groups := make(map[int64]bool)

	var doc map[string]bool
	if !s.read(ctx, DocAllowedGroups, &doc) {
		return groups
	}

	for key, allowed := range doc {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.logger.Warn().Str("chat_id", key).Msg("Skipping allowed group with malformed chat id")
			continue
		}
		if allowed {
			groups[chatID] = true
		}
	}
	return groups
}

// SaveAllowedGroups implements deps.AccessStore
func (s *Store) SaveAllowedGroups(ctx context.Context, groups map[int64]bool) error {
	doc := make(map[string]bool, len(groups))
	for chatID, allowed := range groups {
		if allowed {
			doc[strconv.FormatInt(chatID, 10)] = true
		}
	}
	return s.write(ctx, DocAllowedGroups, doc)
}

// read decodes a document into v. It reports false for missing or malformed
// documents, which callers treat as defaults.
func (s *Store) read(ctx context.Context, name string, v any) bool {
	data, err := s.backend.Read(ctx, name)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			s.logger.Info().Str("document", name).Msg("Document not found, using defaults")
		} else {
			s.logger.Warn().Err(err).Str("document", name).Msg("Failed to read document, using defaults")
		}
		return false
	}

	if len(data) == 0 {
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("document", name).Msg("Malformed document, using defaults")
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", playbackerrors.ErrPersistence, name, err)
	}

	lock := s.locks[name]
	lock.Lock()
	defer lock.Unlock()

	if err := s.backend.Write(ctx, name, data); err != nil {
		return fmt.Errorf("%w: %w", playbackerrors.ErrPersistence, err)
	}

	s.logger.Debug().Str("document", name).Int("bytes", len(data)).Msg("Document saved")
	return nil
}

// encodeEntry produces [streamURL, title, mediaID] with "video" appended for video items
func encodeEntry(item entities.QueueItem) []string {
	entry := []string{item.StreamURL, item.Title, item.MediaID}
	if item.Kind == entities.MediaKindVideo {
		entry = append(entry, videoMarker)
	}
	return entry
}

func decodeEntry(entry []string) (entities.QueueItem, bool) {
	if len(entry) < 3 || len(entry) > 4 || entry[0] == "" {
		return entities.QueueItem{}, false
	}

	kind := entities.MediaKindAudio
	if len(entry) == 4 {
		if entry[3] != videoMarker {
			return entities.QueueItem{}, false
		}
		kind = entities.MediaKindVideo
	}

	return entities.QueueItem{
		StreamURL: entry[0],
		Title:     entry[1],
		MediaID:   entry[2],
		Kind:      kind,
	}, true
}
