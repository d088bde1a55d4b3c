package scriblfast

import (
	"encoding/json"
	"fmt"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// Wire-boundary errors. Frames failing here are dropped with a diagnostic
// and never reach the bus.
var (
	ErrUnknownEventType  = staticErr("unknown event type")
	ErrReservedEventType = staticErr("reserved event type")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

// DecodeEvent validates an envelope payload against the schema for its tag
// and produces the typed event. This is the only place raw wire data is
// interpreted; downstream components never see a malformed payload.
func DecodeEvent(env scribdto.Envelope) (scribdto.Event, error) {
	switch env.EventType {
	case scribdto.EventGuessOccurred:
		var ev scribdto.GuessOccurred
		if err := json.Unmarshal(env.EventPayload, &ev); err != nil {
			return nil, fmt.Errorf("guess payload: %w", err)
		}
		if ev.PlayerID == "" {
			return nil, fmt.Errorf("guess payload: missing playerId")
		}
		return ev, nil

	case scribdto.EventStateChange:
		return nil, ErrReservedEventType

	case scribdto.EventScoreUpdate:
		var ev scribdto.ScoreUpdate
		if err := json.Unmarshal(env.EventPayload, &ev); err != nil {
			return nil, fmt.Errorf("score payload: %w", err)
		}
		return ev, nil

	case scribdto.EventGameUpdate:
		var patch scribdto.GamePatch
		if err := json.Unmarshal(env.EventPayload, &patch); err != nil {
			return nil, fmt.Errorf("game payload: %w", err)
		}
		return scribdto.GameUpdate{Patch: patch}, nil

	case scribdto.EventPlayerUpdate:
		var ev scribdto.PlayerUpdate
		if err := json.Unmarshal(env.EventPayload, &ev); err != nil {
			return nil, fmt.Errorf("player update payload: %w", err)
		}
		if ev.PlayerID == "" {
			return nil, fmt.Errorf("player update payload: missing PlayerId")
		}
		return ev, nil

	case scribdto.EventPlayerAdded:
		var p scribdto.Player
		if err := json.Unmarshal(env.EventPayload, &p); err != nil {
			return nil, fmt.Errorf("player payload: %w", err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("player payload: %w", err)
		}
		return scribdto.PlayerAdded{Player: p}, nil

	case scribdto.EventDrawing:
		var ev scribdto.Drawing
		if err := json.Unmarshal(env.EventPayload, &ev); err != nil {
			return nil, fmt.Errorf("drawing payload: %w", err)
		}
		if ev.Index < 0 {
			return nil, fmt.Errorf("drawing payload: negative index %d", ev.Index)
		}
		if ev.Line.Size < 0 {
			return nil, fmt.Errorf("drawing payload: negative stroke size %d", ev.Line.Size)
		}
		return ev, nil

	default:
		return nil, ErrUnknownEventType
	}
}

// EncodeEvent wraps a typed event into the wire envelope for sending.
func EncodeEvent(ev scribdto.Event) (scribdto.Envelope, error) {
	var payload any = ev
	switch v := ev.(type) {
	case scribdto.GameUpdate:
		payload = v.Patch
	case scribdto.PlayerAdded:
		payload = v.Player
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return scribdto.Envelope{}, fmt.Errorf("marshal %s payload: %w", ev.Type(), err)
	}
	return scribdto.Envelope{EventType: ev.Type(), EventPayload: raw}, nil
}
