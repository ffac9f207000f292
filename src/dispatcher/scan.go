package dispatcher

import "elevsim/src/types"

// nextFloor is the nearest-next-stop policy. Both scans start at currentFloor
// itself and run to the end of the shaft in dir; the direction is reversed
// once when neither finds anything.
func (t *Tables) nextFloor(elevator, currentFloor int, dir types.Direction) (int, bool) {
	dest, hasDest := t.nextDestination(elevator, currentFloor, dir)
	pickup, hasPickup := t.nextPickup(currentFloor, dir)

	if !hasDest && !hasPickup {
		dir = dir.Opposite()
		dest, hasDest = t.nextDestination(elevator, currentFloor, dir)
		pickup, hasPickup = t.nextPickup(currentFloor, dir)
		if !hasDest && !hasPickup {
			return 0, false
		}
	}

	if hasPickup && (!hasDest || distance(pickup, currentFloor) <= distance(dest, currentFloor)) {
		t.Valid[pickup-1] = elevator
		return pickup, true
	}
	return dest, true
}

func (t *Tables) nextDestination(elevator, currentFloor int, dir types.Direction) (int, bool) {
	stops := t.Destinations[elevator]
	return scan(currentFloor, dir, len(stops), func(i int) bool {
		return stops[i]
	})
}

func (t *Tables) nextPickup(currentFloor int, dir types.Direction) (int, bool) {
	return scan(currentFloor, dir, len(t.Queue), func(i int) bool {
		return len(t.Queue[i]) > 0 && t.Valid[i] == Unclaimed
	})
}

// scan walks floor indices from currentFloor in dir and returns the first
// floor whose index satisfies hit.
func scan(currentFloor int, dir types.Direction, numFloors int, hit func(i int) bool) (int, bool) {
	for i := currentFloor - 1; i >= 0 && i < numFloors; i += dir.Step() {
		if hit(i) {
			return i + 1, true
		}
	}
	return 0, false
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
