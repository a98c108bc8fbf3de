package utils

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lmittmann/tint"
)

// localCounters numbers tickets and suggestions while the store is failing.
// They start above the highest value the store handed out in this process.
var localCounters = struct {
	sync.Mutex
	values map[string]int
}{values: make(map[string]int)}

// NextNumber returns the next per-guild sequence number for name
func NextNumber(ctx context.Context, guildID, name string) int {
	key := guildID + "/" + name
	n, err := DB.NextCounter(ctx, guildID, name)

	localCounters.Lock()
	defer localCounters.Unlock()
	if err == nil {
		if n > localCounters.values[key] {
			localCounters.values[key] = n
		}
		return n
	}
	slog.Warn("counter unavailable, numbering locally", "guild_id", guildID, "counter", name, tint.Err(err))
	localCounters.values[key]++
	return localCounters.values[key]
}
