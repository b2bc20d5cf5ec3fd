package backend

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// lookup is a cached privileged user lookup. A nil user records that no row
// exists for the email.
type lookup struct {
	user *models.PrivilegedUser
}

// cache holds privileged user lookups by email. A nil *cache is a disabled
// cache.
type cache struct {
	users *expirable.LRU[string, lookup]
}

func newCache(size int, ttl time.Duration) *cache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = 1
	}

	return &cache{users: expirable.NewLRU[string, lookup](size, nil, ttl)}
}

func (c *cache) Get(email string) (lookup, bool) {
	if c == nil {
		return lookup{}, false
	}

	return c.users.Get(email)
}

func (c *cache) Set(email string, l lookup) {
	if c == nil {
		return
	}

	c.users.Add(email, l)
}

func (c *cache) Delete(emails ...string) {
	if c == nil {
		return
	}

	for _, email := range emails {
		c.users.Remove(email)
	}
}

func (c *cache) Purge() {
	if c == nil {
		return
	}

	c.users.Purge()
}

func (c *cache) Len() int {
	if c == nil {
		return 0
	}

	return c.users.Len()
}
