// Package drawing keeps the index-addressed stroke list in sync between the
// drawer and the observers. Every patch, local or remote, carries the whole
// stroke for its index, so applying the same patch twice is harmless.
package drawing

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// Emitter receives the patch produced by a local draw action. Wired to the
// socket's fire-and-forget send.
type Emitter func(patch scribdto.Drawing)

type Canvas struct {
	logger *zap.Logger
	emit   Emitter

	mu      sync.RWMutex
	strokes []scribdto.Stroke
}

func NewCanvas(logger *zap.Logger, emit Emitter) *Canvas {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emit == nil {
		emit = func(scribdto.Drawing) {}
	}
	return &Canvas{logger: logger, emit: emit}
}

// StartStroke begins a new local stroke, emits it, and returns its index.
// The caller holds the index for subsequent AppendPoint calls.
func (c *Canvas) StartStroke(size int, rgb [3]int) int {
	c.mu.Lock()
	stroke := scribdto.Stroke{Points: []scribdto.Point{}, Size: size, RGB: rgb}
	c.strokes = append(c.strokes, stroke)
	index := len(c.strokes) - 1
	patch := scribdto.Drawing{Line: stroke.Clone(), Index: index}
	c.mu.Unlock()

	c.emit(patch)
	return index
}

// AppendPoint extends the stroke at index and emits the entire updated
// stroke, not a delta.
func (c *Canvas) AppendPoint(index int, p scribdto.Point) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.strokes) {
		c.mu.Unlock()
		return fmt.Errorf("no stroke at index %d", index)
	}
	c.strokes[index].Points = append(c.strokes[index].Points, p)
	patch := scribdto.Drawing{Line: c.strokes[index].Clone(), Index: index}
	c.mu.Unlock()

	c.emit(patch)
	return nil
}

// Apply folds a remote DRAWING patch in: the stroke at the patch index is
// replaced wholesale. An index at or beyond the current length grows the
// list to exactly index+1; the gap, if any, fills with empty strokes rather
// than leaving the list sparse.
func (c *Canvas) Apply(patch scribdto.Drawing) {
	if patch.Index < 0 {
		c.logger.Warn("drawing_invalid_index", zap.Int("index", patch.Index))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.strokes) <= patch.Index {
		c.strokes = append(c.strokes, scribdto.Stroke{})
	}
	c.strokes[patch.Index] = patch.Line.Clone()
}

// ClearIfNotDrawing empties the canvas whenever the game is in any state but
// DRAWING. Strokes never survive past the turn they were drawn in.
func (c *Canvas) ClearIfNotDrawing(state scribdto.GameState) {
	if state == scribdto.StateDrawing {
		return
	}
	c.Clear()
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.strokes) > 0 {
		c.logger.Debug("canvas_clear", zap.Int("strokes", len(c.strokes)))
	}
	c.strokes = nil
}

// Snapshot returns a deep copy of the stroke list for rendering.
func (c *Canvas) Snapshot() []scribdto.Stroke {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return scribdto.CloneStrokes(c.strokes)
}

func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strokes)
}
