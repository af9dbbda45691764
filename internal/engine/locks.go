package engine

import (
	"hash/fnv"
	"strconv"
	"sync"

	"abewatch/internal/model"
)

const lockStripes = 64

// stripedLocks serializes purge-check-insert per (key, scope) so two
// near-simultaneous posts of the same new link see each other.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lockFor(key string, scope model.Scope) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(scope.GuildID, 10)))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(scope.ChannelID, 10)))
	return &l.stripes[h.Sum32()%lockStripes]
}
