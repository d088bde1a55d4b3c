package scribdto

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActiveState string

const (
	ActiveStateCreating     ActiveState = "creating"
	ActiveStateActive       ActiveState = "active"
	ActiveStateDisconnected ActiveState = "disconnected"
)

func (s ActiveState) Valid() bool {
	switch s {
	case ActiveStateCreating, ActiveStateActive, ActiveStateDisconnected:
		return true
	default:
		return false
	}
}

type Player struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Score          int         `json:"score"`
	Game           string      `json:"game"`
	DateCreated    time.Time   `json:"dateCreated"`
	GuessedCorrect bool        `json:"guessedCorrect"`
	ActiveState    ActiveState `json:"activeState"`
}

// Validate enforces the shape PLAYER_ADDED frames must satisfy before any
// downstream component sees them.
func (p *Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is empty")
	}
	if p.Score < 0 {
		return fmt.Errorf("player %s has negative score %d", p.ID, p.Score)
	}
	if !p.ActiveState.Valid() {
		return fmt.Errorf("player %s has invalid active state %q", p.ID, p.ActiveState)
	}
	return nil
}

// PlayerPatch is the normalised partial-player shape the state store merges.
type PlayerPatch struct {
	Name           *string
	Score          *int
	GuessedCorrect *bool
	ActiveState    *ActiveState
}

// PlayerUpdates is the legacy capitalised patch shape carried inside
// PLAYER_UPDATE frames. The wire still uses the old field names, so both
// shapes are kept: this one at the boundary, PlayerPatch everywhere else.
type PlayerUpdates struct {
	Name           *string
	Score          *int
	GuessedCorrect *bool
	ActiveState    *string
}

func (u *PlayerUpdates) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		var err error
		switch key {
		case "Name":
			err = json.Unmarshal(raw, &u.Name)
		case "Score":
			err = json.Unmarshal(raw, &u.Score)
		case "GuessedCorrect":
			err = json.Unmarshal(raw, &u.GuessedCorrect)
		case "ActiveState":
			err = json.Unmarshal(raw, &u.ActiveState)
		}
		if err != nil {
			return fmt.Errorf("player updates field %q: %w", key, err)
		}
	}
	return nil
}

func (u PlayerUpdates) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if u.Name != nil {
		fields["Name"] = *u.Name
	}
	if u.Score != nil {
		fields["Score"] = *u.Score
	}
	if u.GuessedCorrect != nil {
		fields["GuessedCorrect"] = *u.GuessedCorrect
	}
	if u.ActiveState != nil {
		fields["ActiveState"] = *u.ActiveState
	}
	return json.Marshal(fields)
}

// Patch converts the legacy shape into the normalised one. An ActiveState
// value outside the known enum is dropped field-wise rather than failing the
// whole frame, matching the original client's guard.
func (u PlayerUpdates) Patch() PlayerPatch {
	p := PlayerPatch{
		Name:           u.Name,
		Score:          u.Score,
		GuessedCorrect: u.GuessedCorrect,
	}
	if u.ActiveState != nil {
		if st := ActiveState(*u.ActiveState); st.Valid() {
			p.ActiveState = &st
		}
	}
	return p
}

// PlayerEdit is the body of POST /player/{id}. The endpoint predates the
// lowercase schema and still takes capitalised keys.
type PlayerEdit struct {
	ActiveState *ActiveState `json:"ActiveState,omitempty"`
	Name        *string      `json:"Name,omitempty"`
}
