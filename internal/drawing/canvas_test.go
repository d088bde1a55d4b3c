package drawing

import (
	"testing"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

func stroke(points ...scribdto.Point) scribdto.Stroke {
	return scribdto.Stroke{Points: points, Size: 5, RGB: [3]int{10, 20, 30}}
}

func TestApplyGrowsToIndexPlusOne(t *testing.T) {
	c := NewCanvas(nil, nil)

	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 2}), Index: 3})

	if c.Len() != 4 {
		t.Fatalf("len = %d after patch at index 3, want 4", c.Len())
	}
	snap := c.Snapshot()
	for i := 0; i < 3; i++ {
		if len(snap[i].Points) != 0 {
			t.Fatalf("gap stroke %d is not empty: %+v", i, snap[i])
		}
	}
	if len(snap[3].Points) != 1 || snap[3].Points[0].X != 1 {
		t.Fatalf("patched stroke wrong: %+v", snap[3])
	}
}

func TestApplySameIndexReplacesNotConcatenates(t *testing.T) {
	c := NewCanvas(nil, nil)

	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 1}), Index: 0})
	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 1}, scribdto.Point{X: 2, Y: 2}), Index: 0})

	snap := c.Snapshot()
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if len(snap[0].Points) != 2 {
		t.Fatalf("stroke has %d points after replacement, want 2", len(snap[0].Points))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := NewCanvas(nil, nil)
	patch := scribdto.Drawing{Line: stroke(scribdto.Point{X: 4, Y: 4}), Index: 0}

	c.Apply(patch)
	c.Apply(patch)

	if c.Len() != 1 || len(c.Snapshot()[0].Points) != 1 {
		t.Fatalf("replaying the same patch changed the canvas: %+v", c.Snapshot())
	}
}

func TestLocalStrokeEmitsWholeStroke(t *testing.T) {
	var emitted []scribdto.Drawing
	c := NewCanvas(nil, func(p scribdto.Drawing) { emitted = append(emitted, p) })

	index := c.StartStroke(5, [3]int{255, 0, 0})
	if index != 0 {
		t.Fatalf("first stroke index = %d, want 0", index)
	}
	if err := c.AppendPoint(index, scribdto.Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := c.AppendPoint(index, scribdto.Point{X: 2, Y: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(emitted) != 3 {
		t.Fatalf("emitted %d patches, want 3 (start + 2 appends)", len(emitted))
	}
	last := emitted[2]
	if last.Index != 0 || len(last.Line.Points) != 2 {
		t.Fatalf("last patch does not carry the whole stroke: %+v", last)
	}
	if last.Line.RGB != [3]int{255, 0, 0} || last.Line.Size != 5 {
		t.Fatalf("stroke attributes lost: %+v", last.Line)
	}
}

func TestAppendPointOutOfRange(t *testing.T) {
	c := NewCanvas(nil, nil)
	if err := c.AppendPoint(0, scribdto.Point{}); err == nil {
		t.Fatal("append to missing stroke did not error")
	}
	c.StartStroke(5, [3]int{0, 0, 0})
	if err := c.AppendPoint(-1, scribdto.Point{}); err == nil {
		t.Fatal("negative index did not error")
	}
}

func TestApplyNegativeIndexIsDropped(t *testing.T) {
	c := NewCanvas(nil, nil)
	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 1}), Index: 0})

	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 9, Y: 9}), Index: -1})

	if c.Len() != 1 {
		t.Fatalf("len = %d after negative-index patch, want 1", c.Len())
	}
	if p := c.Snapshot()[0].Points[0]; p.X != 1 {
		t.Fatalf("negative-index patch mutated stroke 0: %+v", p)
	}
}

func TestClearIfNotDrawing(t *testing.T) {
	c := NewCanvas(nil, nil)
	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 1}), Index: 0})

	c.ClearIfNotDrawing(scribdto.StateDrawing)
	if c.Len() != 1 {
		t.Fatal("canvas cleared while still drawing")
	}

	c.ClearIfNotDrawing(scribdto.StateSelectingWord)
	if c.Len() != 0 {
		t.Fatal("canvas kept strokes past the drawing state")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	c := NewCanvas(nil, nil)
	c.Apply(scribdto.Drawing{Line: stroke(scribdto.Point{X: 1, Y: 1}), Index: 0})

	snap := c.Snapshot()
	snap[0].Points[0].X = 99

	if c.Snapshot()[0].Points[0].X != 1 {
		t.Fatal("snapshot shares backing storage with the canvas")
	}
}
