package draw

// Segment is one entry's slice of the wheel, in degrees from the pointer.
type Segment struct {
	Index    int     `json:"index"`
	StartDeg float64 `json:"start_deg"`
	EndDeg   float64 `json:"end_deg"`
}

// Wheel is the geometry a spinning-wheel animation replays. StopDeg is the
// centre of the drawn ticket's slot, which always lies inside the winner's
// segment; the animation must come to rest there rather than choose its own
// angle.
type Wheel struct {
	Segments []Segment `json:"segments"`
	StopDeg  float64   `json:"stop_deg"`
}

// NewWheel lays out weights around 360 degrees in the same order used by
// Draw and positions the stop angle on res.Ticket.
func NewWheel(weights []int, res Result) (Wheel, error) {
	sums, err := PrefixSums(weights)
	if err != nil {
		return Wheel{}, err
	}
	total := float64(sums[len(sums)-1])
	segments := make([]Segment, len(weights))
	start := 0
	for i, end := range sums {
		segments[i] = Segment{
			Index:    i,
			StartDeg: float64(start) / total * 360,
			EndDeg:   float64(end) / total * 360,
		}
		start = end
	}
	return Wheel{
		Segments: segments,
		StopDeg:  (float64(res.Ticket) + 0.5) / total * 360,
	}, nil
}
