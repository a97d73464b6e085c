package game

// AllNonHostReady reports whether every non-host player has readied up.
// Vacuously true when the roster has no non-host players; see Startable.
func AllNonHostReady(players []Player) bool {
	for _, p := range players {
		if !p.IsHost && !p.IsReady {
			return false
		}
	}
	return true
}

// Startable reports whether a lobby can begin playing: at least one
// non-host player, and every one of them ready.
func Startable(players []Player) bool {
	nonHost := 0
	for _, p := range players {
		if p.IsHost {
			continue
		}
		nonHost++
		if !p.IsReady {
			return false
		}
	}
	return nonHost > 0
}

// RoundComplete reports whether every expected player has submitted an
// answer sheet for the round. The surrounding application re-evaluates this
// whenever new data arrives; the core never waits on it.
func RoundComplete(rd RoundData, expected []string) bool {
	for _, id := range expected {
		if _, ok := rd[id]; !ok {
			return false
		}
	}
	return true
}
