package dispatcher

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"elevsim/src/types"
)

func expectNext(t *testing.T, c *Controller, elevator, current int, dir types.Direction, want int) {
	t.Helper()
	got, ok := c.NextFloor(elevator, current, dir)
	if want == 0 {
		if ok {
			t.Fatalf("NextFloor(%d, %d, %v) = %d, expected none", elevator, current, dir, got)
		}
		return
	}
	if !ok || got != want {
		t.Fatalf("NextFloor(%d, %d, %v) = %d, %v, expected %d", elevator, current, dir, got, ok, want)
	}
}

func TestFaultTravelsWithClaim(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 5, types.DoorJam)

	expectNext(t, c, 0, 1, types.DirDown, 4)
	if got := c.NextError(0, 4); got != types.DoorJam {
		t.Errorf("NextError(0, 4) = %v, expected DOOR_JAM", got)
	}
}

func TestDirectionOfTravelFirst(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 5, types.NoError)
	c.AddRequest(1, 9, types.StuckFloor)

	expectNext(t, c, 0, 1, types.DirDown, 1)
	if got := c.NextError(0, 1); got != types.StuckFloor {
		t.Errorf("NextError(0, 1) = %v, expected STUCK_FLOOR", got)
	}
}

func TestSecondCallFindsNothing(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 9, types.NoError)
	c.AddRequest(4, 15, types.NoError)

	expectNext(t, c, 0, 1, types.DirUp, 4)
	expectNext(t, c, 0, 1, types.DirUp, 0)

	c.AckFloor(0, 4)
	snap := c.Snapshot()
	if !snap.Destinations[0][8] || !snap.Destinations[0][14] {
		t.Errorf("destinations after boarding at 4 = %v, expected 9 and 15", snap.Destinations[0])
	}
}

func TestIdleWithoutWork(t *testing.T) {
	c := New(22, 4)
	for _, dir := range []types.Direction{types.DirUp, types.DirDown, types.DirInactive} {
		expectNext(t, c, 2, 11, dir, 0)
	}
}

func TestClaimAndBoard(t *testing.T) {
	c := New(22, 4)
	if err := c.AddRequest(4, 5, types.NoError); err != nil {
		t.Fatal(err)
	}

	expectNext(t, c, 0, 1, types.DirUp, 4)
	if snap := c.Snapshot(); snap.Valid[3] != 0 {
		t.Fatalf("floor 4 owner = %d, expected 0", snap.Valid[3])
	}

	if err := c.AckFloor(0, 4); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if !snap.Destinations[0][4] {
		t.Error("floor 5 not in elevator 0 destinations")
	}
	if len(snap.Queue[3]) != 0 {
		t.Errorf("floor 4 queue = %v, expected empty", snap.Queue[3])
	}
	if snap.Valid[3] != Unclaimed {
		t.Errorf("floor 4 owner = %d, expected unclaimed", snap.Valid[3])
	}
}

func TestReversesWhenNothingAhead(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 5, types.NoError)
	expectNext(t, c, 0, 5, types.DirUp, 4)
}

func TestNoDoubleClaim(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 5, types.NoError)
	expectNext(t, c, 0, 1, types.DirUp, 4)
	expectNext(t, c, 0, 1, types.DirUp, 0)
	expectNext(t, c, 1, 1, types.DirUp, 0)
}

func TestClaimedFloorIsInvisibleToOthers(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 9, types.NoError)
	c.AddRequest(6, 2, types.NoError)
	expectNext(t, c, 0, 1, types.DirUp, 4)
	expectNext(t, c, 1, 1, types.DirUp, 6)
	expectNext(t, c, 2, 1, types.DirUp, 0)
}

func TestServeSequence(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(4, 5, types.NoError)
	c.AddRequest(8, 9, types.NoError)
	c.AddRequest(1, 9, types.NoError)

	// Scans include the current floor, so heading down from 1 finds 1.
	expectNext(t, c, 0, 1, types.DirDown, 1)
	c.AckFloor(0, 1)

	floor, dir := 1, types.DirUp
	for _, want := range []int{4, 5, 8, 9} {
		expectNext(t, c, 0, floor, dir, want)
		c.AckFloor(0, want)
		floor = want
	}
	expectNext(t, c, 0, floor, dir, 0)
}

func TestNearestStopWins(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(3, 10, types.NoError)
	expectNext(t, c, 0, 3, types.DirUp, 3)
	c.AckFloor(0, 3)

	// Destination 10 is five floors away, pickup 7 only two.
	c.AddRequest(7, 12, types.NoError)
	expectNext(t, c, 0, 5, types.DirUp, 7)
	c.AckFloor(0, 7)

	// Pickup 20 is further than destination 10.
	c.AddRequest(20, 1, types.NoError)
	expectNext(t, c, 0, 8, types.DirUp, 10)
	if snap := c.Snapshot(); snap.Valid[19] != Unclaimed {
		t.Errorf("floor 20 owner = %d, expected unclaimed", snap.Valid[19])
	}
}

func TestTieFavoursPickup(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(2, 6, types.NoError)
	expectNext(t, c, 0, 2, types.DirUp, 2)
	c.AckFloor(0, 2)

	c.AddRequest(6, 7, types.NoError)
	expectNext(t, c, 0, 4, types.DirUp, 6)
	if snap := c.Snapshot(); snap.Valid[5] != 0 {
		t.Errorf("floor 6 owner = %d, expected the tie to claim it", snap.Valid[5])
	}
}

func TestNextError(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(5, 6, types.DoorJam)
	c.AddRequest(5, 7, types.StuckFloor)
	c.AddRequest(5, 8, types.NoError)

	if got := c.NextError(0, 5); got != types.NoError {
		t.Errorf("NextError before claim = %v, expected NO_ERROR", got)
	}
	expectNext(t, c, 0, 1, types.DirUp, 5)
	if got := c.NextError(0, 5); got != types.StuckFloor {
		t.Errorf("NextError(0, 5) = %v, expected STUCK_FLOOR", got)
	}
	if got := c.NextError(1, 5); got != types.NoError {
		t.Errorf("NextError(1, 5) = %v, expected NO_ERROR for non-owner", got)
	}
}

func TestProcessError(t *testing.T) {
	c := New(22, 4)
	c.AddRequest(5, 6, types.StuckFloor)
	c.AddRequest(9, 2, types.DoorJam)
	expectNext(t, c, 0, 1, types.DirUp, 5)
	expectNext(t, c, 1, 1, types.DirUp, 9)

	released := c.ProcessError(0)
	if !slices.Equal(released, []int{5}) {
		t.Fatalf("ProcessError(0) released %v, expected [5]", released)
	}

	snap := c.Snapshot()
	if snap.Valid[4] != Unclaimed {
		t.Errorf("floor 5 owner = %d, expected unclaimed", snap.Valid[4])
	}
	if snap.Queue[4][0].Fault != types.NoError {
		t.Errorf("floor 5 fault = %v, expected cleared", snap.Queue[4][0].Fault)
	}
	if snap.Valid[8] != 1 || snap.Queue[8][0].Fault != types.DoorJam {
		t.Errorf("floor 9 = owner %d fault %v, expected untouched", snap.Valid[8], snap.Queue[8][0].Fault)
	}

	// Another elevator can now take the released request, fault free.
	expectNext(t, c, 2, 1, types.DirUp, 5)
	if got := c.NextError(2, 5); got != types.NoError {
		t.Errorf("NextError after release = %v, expected NO_ERROR", got)
	}

	if again := c.ProcessError(0); len(again) != 0 {
		t.Errorf("second ProcessError(0) released %v, expected nothing", again)
	}
}

func TestRangeValidation(t *testing.T) {
	c := New(10, 2)
	for _, req := range [][2]int{{0, 3}, {11, 3}, {3, 0}, {3, 11}} {
		if err := c.AddRequest(req[0], req[1], types.NoError); !errors.Is(err, ErrFloorOutOfRange) {
			t.Errorf("AddRequest(%d, %d) = %v, expected ErrFloorOutOfRange", req[0], req[1], err)
		}
	}
	if err := c.AckFloor(2, 3); !errors.Is(err, ErrUnknownElevator) {
		t.Errorf("AckFloor(2, 3) = %v, expected ErrUnknownElevator", err)
	}
	if err := c.AckFloor(0, 12); !errors.Is(err, ErrFloorOutOfRange) {
		t.Errorf("AckFloor(0, 12) = %v, expected ErrFloorOutOfRange", err)
	}
	expectNext(t, c, 5, 1, types.DirUp, 0)
}

func TestSnapshotIsIsolated(t *testing.T) {
	c := New(5, 1)
	c.AddRequest(2, 3, types.NoError)
	snap := c.Snapshot()
	snap.Queue[1][0].DestFloor = 5
	snap.Valid[1] = 0
	if fresh := c.Snapshot(); fresh.Queue[1][0].DestFloor != 3 || fresh.Valid[1] != Unclaimed {
		t.Errorf("snapshot mutation leaked into controller: %+v", fresh)
	}
}

func TestConcurrentClaimsAreExclusive(t *testing.T) {
	const floors, elevators = 20, 8
	c := New(floors, elevators)
	for f := 1; f <= floors; f++ {
		c.AddRequest(f, 1, types.NoError)
	}

	var mu sync.Mutex
	claimed := map[int]int{}
	var wg sync.WaitGroup
	for e := 0; e < elevators; e++ {
		wg.Add(1)
		go func(e int) {
			defer wg.Done()
			for {
				floor, ok := c.NextFloor(e, 1, types.DirUp)
				if !ok {
					return
				}
				mu.Lock()
				if owner, dup := claimed[floor]; dup {
					t.Errorf("floor %d claimed by %d and %d", floor, owner, e)
				}
				claimed[floor] = e
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()

	if len(claimed) != floors {
		t.Errorf("claimed %d floors, expected %d", len(claimed), floors)
	}
}

func TestCloseStopsController(t *testing.T) {
	c := New(10, 1)
	c.AddRequest(3, 5, types.NoError)
	c.Close()
	c.Close()

	if err := c.AddRequest(2, 4, types.NoError); !errors.Is(err, ErrClosed) {
		t.Errorf("AddRequest after Close returned %v, expected ErrClosed", err)
	}
	if err := c.AckFloor(0, 3); !errors.Is(err, ErrClosed) {
		t.Errorf("AckFloor after Close returned %v, expected ErrClosed", err)
	}
	expectNext(t, c, 0, 1, types.DirUp, 0)
	if snap := c.Snapshot(); snap.Queue != nil {
		t.Errorf("Snapshot after Close = %+v, expected zero tables", snap)
	}
}
