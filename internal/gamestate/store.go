// Package gamestate keeps the client's read model of the shared game: one
// game aggregate plus the player roster, seeded from REST snapshots and then
// folded forward by wire events in arrival order.
package gamestate

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// Store applies mutations strictly in the order they are handed to it; for
// the same field on the same entity the latest event wins. The lock exists
// for readers on other goroutines, not for writer/writer races: all writes
// arrive on the single socket dispatch flow.
type Store struct {
	logger *zap.Logger

	mu            sync.RWMutex
	game          *scribdto.Game
	players       map[string]scribdto.Player
	gameLoaded    bool
	playersLoaded bool
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:  logger,
		players: make(map[string]scribdto.Player),
	}
}

// SetGame seeds the game aggregate from the snapshot fetch.
func (s *Store) SetGame(g scribdto.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = &g
	s.gameLoaded = true
}

// SetPlayers seeds the roster from the snapshot fetch. Duplicate ids within
// the snapshot keep the first occurrence.
func (s *Store) SetPlayers(players []scribdto.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		if _, ok := s.players[p.ID]; ok {
			s.logger.Warn("player_add_duplicate", zap.String("player_id", p.ID))
			continue
		}
		s.players[p.ID] = p
	}
	s.playersLoaded = true
}

// Loaded reports whether both snapshot halves have arrived. State is not
// considered usable until the game and the roster are both present.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameLoaded && s.playersLoaded
}

// AddPlayer inserts a player announced by PLAYER_ADDED. An existing id is a
// no-op with a diagnostic, never an overwrite.
func (s *Store) AddPlayer(p scribdto.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		s.logger.Warn("player_add_duplicate", zap.String("player_id", p.ID))
		return
	}
	s.players[p.ID] = p
}

// ApplyGameUpdate shallow-merges a GAME_UPDATE patch onto the aggregate.
// Before the snapshot seeded the game there is nothing to patch; the event
// is dropped with a diagnostic.
func (s *Store) ApplyGameUpdate(patch scribdto.GamePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		s.logger.Warn("game_update_before_snapshot")
		return
	}
	s.game.Apply(patch)
}

// ApplyPlayerPatch field-merges a patch onto an existing player. Unknown ids
// are a no-op with a diagnostic.
func (s *Store) ApplyPlayerPatch(playerID string, patch scribdto.PlayerPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		s.logger.Warn("player_update_unknown", zap.String("player_id", playerID))
		return
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Score != nil {
		p.Score = *patch.Score
	}
	if patch.GuessedCorrect != nil {
		p.GuessedCorrect = *patch.GuessedCorrect
	}
	if patch.ActiveState != nil {
		p.ActiveState = *patch.ActiveState
	}
	s.players[playerID] = p
}

// ApplyScoreUpdate applies one score merge per entry, independently; unknown
// ids are skipped.
func (s *Store) ApplyScoreUpdate(scores map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, score := range scores {
		p, ok := s.players[id]
		if !ok {
			s.logger.Debug("score_update_unknown", zap.String("player_id", id))
			continue
		}
		p.Score = score
		s.players[id] = p
	}
}

// Game returns a copy of the aggregate, or false before the snapshot.
func (s *Store) Game() (scribdto.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.game == nil {
		return scribdto.Game{}, false
	}
	return *s.game, true
}

// Turn returns the id of the current drawer, empty when nobody holds the turn.
func (s *Store) Turn() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.game == nil || s.game.Turn == nil {
		return ""
	}
	return *s.game.Turn
}

// Player looks a player up by id.
func (s *Store) Player(id string) (scribdto.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok
}

// PlayerName resolves a display name at call time.
func (s *Store) PlayerName(id string) (string, bool) {
	p, ok := s.Player(id)
	if !ok {
		return "", false
	}
	return p.Name, true
}

// Players returns the roster ordered by join time, the order the original
// presentation uses.
func (s *Store) Players() []scribdto.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scribdto.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].ID < out[j].ID
		}
		return out[i].DateCreated.Before(out[j].DateCreated)
	})
	return out
}

// Clear resets the store to its pre-session zero state. Used on session exit
// and on session-identity change.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = nil
	s.players = make(map[string]scribdto.Player)
	s.gameLoaded = false
	s.playersLoaded = false
}
