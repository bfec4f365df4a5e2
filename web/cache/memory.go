package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLUsers bounds how long a resolved session user is reused in process.
const TTLUsers = 5 * time.Minute

var memory = gocache.New(TTLUsers, 10*time.Minute)

// Memory returns the in-process cache. It needs no initialization and is
// used for hot per-request lookups that would otherwise hit the database.
func Memory() *gocache.Cache {
	return memory
}

// UserKey is the memory cache key of the user with the given id.
func UserKey(id string) string {
	return "user:" + id
}

// FlushMemory drops every in-process entry.
func FlushMemory() {
	memory.Flush()
}
