package draw

import "testing"

func TestNewWheel_StopsInsideWinner(t *testing.T) {
	t.Parallel()

	weights := []int{1, 2, 7}
	for ticket := 0; ticket < 10; ticket++ {
		idx, err := Select(weights, ticket)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		wheel, err := NewWheel(weights, Result{Index: idx, Ticket: ticket, Total: 10})
		if err != nil {
			t.Fatalf("wheel: %v", err)
		}
		seg := wheel.Segments[idx]
		if wheel.StopDeg <= seg.StartDeg || wheel.StopDeg >= seg.EndDeg {
			t.Fatalf("ticket %d: stop %.2f outside winner segment [%.2f, %.2f)", ticket, wheel.StopDeg, seg.StartDeg, seg.EndDeg)
		}
	}
}

func TestNewWheel_SegmentsCoverCircle(t *testing.T) {
	t.Parallel()

	wheel, err := NewWheel([]int{1, 3}, Result{Index: 1, Ticket: 2, Total: 4})
	if err != nil {
		t.Fatalf("wheel: %v", err)
	}
	if len(wheel.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(wheel.Segments))
	}
	if wheel.Segments[0].StartDeg != 0 || wheel.Segments[0].EndDeg != 90 {
		t.Fatalf("unexpected first segment: %+v", wheel.Segments[0])
	}
	if wheel.Segments[1].StartDeg != 90 || wheel.Segments[1].EndDeg != 360 {
		t.Fatalf("unexpected second segment: %+v", wheel.Segments[1])
	}
	if wheel.StopDeg != 225 {
		t.Fatalf("expected stop 225, got %.2f", wheel.StopDeg)
	}
}
