package session

import "go_secure_copy/constants"

// Counters tracks attempts per failure category. Each starts at 1.
type Counters struct {
	Register  int
	Crc       int
	Reconnect int
	Malformed int
}

func newCounters() Counters {
	return Counters{Register: 1, Crc: 1, Reconnect: 1, Malformed: 1}
}

// retry bumps *attempts and returns true while the ceiling has not been reached.
func retry(attempts *int) bool {
	if *attempts >= constants.MAX_ATTEMPTS {
		return false
	}
	*attempts++
	return true
}
