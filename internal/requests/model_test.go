package requests

import "testing"

func TestLifecycleTransitions(t *testing.T) {
	allowed := [][2]string{
		{StatusPending, StatusAccepted},
		{StatusPending, StatusRejected},
		{StatusAccepted, StatusCompleted},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]string{
		{StatusPending, StatusCompleted},  // no settlement without acceptance
		{StatusCompleted, StatusCompleted}, // double settlement
		{StatusRejected, StatusAccepted},
		{StatusCompleted, StatusPending},
		{StatusAccepted, StatusRejected},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("%s -> %s must be denied", tr[0], tr[1])
		}
	}
}

func TestServiceStatusStaysConsistent(t *testing.T) {
	cases := map[string]string{
		StatusPending:   "booked",
		StatusAccepted:  "booked",
		StatusRejected:  "available",
		StatusCompleted: "completed",
	}
	for reqStatus, want := range cases {
		if got := ServiceStatusFor(reqStatus); got != want {
			t.Errorf("ServiceStatusFor(%s) = %s, want %s", reqStatus, got, want)
		}
	}
}
