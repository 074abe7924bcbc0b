package layout

// StaticMeasurer serves measurements captured elsewhere, such as a client
// posting its DOM geometry.
type StaticMeasurer struct {
	Mounted bool               `json:"mounted"`
	Frame   Container          `json:"container"`
	Anchors map[string]Rect    `json:"anchors"`
	Cards   map[string]float64 `json:"cards"`
}

func (s StaticMeasurer) Container() (Container, bool) {
	return s.Frame, s.Mounted
}

func (s StaticMeasurer) AnchorRect(commentID string) (Rect, bool) {
	rect, ok := s.Anchors[commentID]
	return rect, ok
}

func (s StaticMeasurer) CardHeight(noteID string) (float64, bool) {
	height, ok := s.Cards[noteID]
	return height, ok
}
