package scribdto

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Stroke is one drawn line: an ordered point sequence sharing a width and
// colour. Strokes are addressed by their position in the session's stroke
// list; a patch for index i replaces the stroke at i wholesale.
type Stroke struct {
	Points []Point `json:"points"`
	Size   int     `json:"size"`
	RGB    [3]int  `json:"rgb"`
}

// Clone returns a copy that shares no point storage with the receiver.
func (s Stroke) Clone() Stroke {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}

// CloneStrokes deep-copies a stroke list.
func CloneStrokes(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}
