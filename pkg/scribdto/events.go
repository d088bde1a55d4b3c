package scribdto

import (
	"encoding/json"
	"fmt"
)

// EventType tags the variants of the wire envelope.
type EventType int

const (
	EventGuessOccurred EventType = 0
	EventStateChange   EventType = 1 // reserved, never populated
	EventScoreUpdate   EventType = 2
	EventGameUpdate    EventType = 3
	EventPlayerUpdate  EventType = 4
	EventPlayerAdded   EventType = 5
	EventDrawing       EventType = 6
)

func (t EventType) String() string {
	switch t {
	case EventGuessOccurred:
		return "GUESS_OCCURRED"
	case EventStateChange:
		return "STATE_CHANGE"
	case EventScoreUpdate:
		return "SCORE_UPDATE"
	case EventGameUpdate:
		return "GAME_UPDATE"
	case EventPlayerUpdate:
		return "PLAYER_UPDATE"
	case EventPlayerAdded:
		return "PLAYER_ADDED"
	case EventDrawing:
		return "DRAWING"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is the validated tagged union published on the bus. Only frames that
// passed the wire schema check ever appear as Events.
type Event interface {
	Type() EventType
}

type GuessOccurred struct {
	Guess     string `json:"guess,omitempty"`
	PlayerID  string `json:"playerId"`
	IsCorrect bool   `json:"isCorrect"`
}

func (GuessOccurred) Type() EventType { return EventGuessOccurred }

// ScoreUpdate maps player ids to their new absolute scores.
type ScoreUpdate map[string]int

func (ScoreUpdate) Type() EventType { return EventScoreUpdate }

type GameUpdate struct {
	Patch GamePatch
}

func (GameUpdate) Type() EventType { return EventGameUpdate }

type PlayerUpdate struct {
	PlayerID string        `json:"PlayerId"`
	Updates  PlayerUpdates `json:"Updates"`
}

func (PlayerUpdate) Type() EventType { return EventPlayerUpdate }

type PlayerAdded struct {
	Player Player
}

func (PlayerAdded) Type() EventType { return EventPlayerAdded }

type Drawing struct {
	Line  Stroke `json:"line"`
	Index int    `json:"index"`
}

func (Drawing) Type() EventType { return EventDrawing }

// Envelope is the raw wire frame: a numeric tag plus the variant payload.
type Envelope struct {
	EventType    EventType       `json:"EventType"`
	EventPayload json.RawMessage `json:"EventPayload"`
}
