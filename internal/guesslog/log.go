// Package guesslog is the append-only feed of guess attempts shown beside
// the canvas.
package guesslog

import (
	"sync"

	"go.uber.org/zap"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// Entry is immutable once appended. Correct guesses carry no guess text; the
// word stays hidden from the other players.
type Entry struct {
	PlayerName string
	Guess      string
	IsCorrect  bool
}

// Resolver maps a player id to a display name using the roster as it stands
// right now. Wired to the state store.
type Resolver func(playerID string) (string, bool)

type Log struct {
	logger  *zap.Logger
	resolve Resolver

	mu      sync.RWMutex
	entries []Entry
}

func NewLog(logger *zap.Logger, resolve Resolver) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger, resolve: resolve}
}

// Record appends an entry for a GUESS_OCCURRED event. The author's name is
// resolved at receipt time; an author missing from the roster produces no
// entry at all: dropped, not buffered.
func (l *Log) Record(ev scribdto.GuessOccurred) {
	name, ok := l.resolve(ev.PlayerID)
	if !ok {
		l.logger.Warn("guess_unknown_player", zap.String("player_id", ev.PlayerID))
		return
	}

	entry := Entry{PlayerName: name, IsCorrect: ev.IsCorrect}
	if !ev.IsCorrect {
		entry.Guess = ev.Guess
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy, most recent last.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset discards the feed. Entries live only as long as the session.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
