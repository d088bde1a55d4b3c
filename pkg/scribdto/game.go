package scribdto

import (
	"encoding/json"
	"fmt"
	"time"
)

// GameState values are the numeric codes used on the wire.
type GameState int

const (
	StateWaitingForPlayers GameState = 0
	StateEnd               GameState = 1
	StateDrawing           GameState = 2
	StateSelectingWord     GameState = 3
)

func (s GameState) Valid() bool {
	return s >= StateWaitingForPlayers && s <= StateSelectingWord
}

func (s GameState) String() string {
	switch s {
	case StateWaitingForPlayers:
		return "WAITING_FOR_PLAYERS"
	case StateEnd:
		return "END"
	case StateDrawing:
		return "DRAWING"
	case StateSelectingWord:
		return "SELECTING_WORD"
	default:
		return fmt.Sprintf("GameState(%d)", int(s))
	}
}

// Game mirrors the server's game aggregate. Turn is nil while nobody holds
// the drawing turn.
type Game struct {
	ID                  string    `json:"id"`
	Rounds              int       `json:"rounds"`
	CurrentRound        int       `json:"currentRound"`
	Turn                *string   `json:"turn"`
	MaxPlayers          int       `json:"maxPlayers"`
	State               GameState `json:"state"`
	LastStateChangeTime time.Time `json:"lastStateChangeTime"`
	DateCreated         time.Time `json:"dateCreated"`
}

// GamePatch is a partial game carried by GAME_UPDATE frames. Fields absent
// from the JSON stay nil (or unset), so applying a patch never clobbers
// fields the server did not send. Turn distinguishes "absent" from an
// explicit null, which clears the turn holder.
type GamePatch struct {
	ID                  *string
	Rounds              *int
	CurrentRound        *int
	TurnSet             bool
	Turn                *string
	MaxPlayers          *int
	State               *GameState
	LastStateChangeTime *time.Time
	DateCreated         *time.Time
}

func (p *GamePatch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(raw, &p.ID)
		case "rounds":
			err = json.Unmarshal(raw, &p.Rounds)
		case "currentRound":
			err = json.Unmarshal(raw, &p.CurrentRound)
		case "turn":
			p.TurnSet = true
			err = json.Unmarshal(raw, &p.Turn)
		case "maxPlayers":
			err = json.Unmarshal(raw, &p.MaxPlayers)
		case "state":
			err = json.Unmarshal(raw, &p.State)
		case "lastStateChangeTime":
			err = json.Unmarshal(raw, &p.LastStateChangeTime)
		case "dateCreated":
			err = json.Unmarshal(raw, &p.DateCreated)
		default:
			// unknown fields are tolerated, same as the snapshot endpoint
		}
		if err != nil {
			return fmt.Errorf("game patch field %q: %w", key, err)
		}
	}
	return nil
}

func (p GamePatch) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if p.ID != nil {
		fields["id"] = *p.ID
	}
	if p.Rounds != nil {
		fields["rounds"] = *p.Rounds
	}
	if p.CurrentRound != nil {
		fields["currentRound"] = *p.CurrentRound
	}
	if p.TurnSet {
		fields["turn"] = p.Turn
	}
	if p.MaxPlayers != nil {
		fields["maxPlayers"] = *p.MaxPlayers
	}
	if p.State != nil {
		fields["state"] = *p.State
	}
	if p.LastStateChangeTime != nil {
		fields["lastStateChangeTime"] = p.LastStateChangeTime
	}
	if p.DateCreated != nil {
		fields["dateCreated"] = p.DateCreated
	}
	return json.Marshal(fields)
}

// Apply overlays the patch onto g, last write wins per field.
func (g *Game) Apply(p GamePatch) {
	if p.ID != nil {
		g.ID = *p.ID
	}
	if p.Rounds != nil {
		g.Rounds = *p.Rounds
	}
	if p.CurrentRound != nil {
		g.CurrentRound = *p.CurrentRound
	}
	if p.TurnSet {
		g.Turn = p.Turn
	}
	if p.MaxPlayers != nil {
		g.MaxPlayers = *p.MaxPlayers
	}
	if p.State != nil {
		g.State = *p.State
	}
	if p.LastStateChangeTime != nil {
		g.LastStateChangeTime = *p.LastStateChangeTime
	}
	if p.DateCreated != nil {
		g.DateCreated = *p.DateCreated
	}
}
