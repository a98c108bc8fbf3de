package utils

import (
	"math"
	"sync"
)

// Level returns the level reached at xp: floor(sqrt(xp / 100))
func Level(xp int64) int {
	if xp <= 0 {
		return 0
	}
	l := int(math.Sqrt(float64(xp) / 100))
	// float rounding can land one off at exact squares
	for XPForLevel(l+1) <= xp {
		l++
	}
	for l > 0 && XPForLevel(l) > xp {
		l--
	}
	return l
}

// XPForLevel is the total XP needed to reach level
func XPForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	return 100 * int64(level) * int64(level)
}

// In-memory notification suppression (resets on restart)
var (
	lastLevelAnnounced = make(map[int64]int)
	notifMutex         sync.Mutex
)

// ShouldAnnounceLevelUp returns true if level is higher than previously announced
func ShouldAnnounceLevelUp(userID int64, newLevel int) bool {
	notifMutex.Lock()
	defer notifMutex.Unlock()
	prev := lastLevelAnnounced[userID]
	if newLevel > prev {
		lastLevelAnnounced[userID] = newLevel
		return true
	}
	return false
}
