package deref

import (
	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// documentCache maps canonical external document IDs to their fully
// dereferenced contents. Entries are immutable snapshots; callers copy
// out of them.
//
// A document counts against the limit from the moment it is reserved, so
// documents still being resolved further up the stack are included.
type documentCache struct {
	docs     map[string]any
	reserved map[string]struct{}
	limit    int
}

func newDocumentCache(limit int) *documentCache {
	return &documentCache{
		docs:     make(map[string]any),
		reserved: make(map[string]struct{}),
		limit:    limit,
	}
}

func (c *documentCache) get(id string) (any, bool) {
	doc, ok := c.docs[id]
	return doc, ok
}

// reserve claims a slot for id, failing when it would exceed the limit.
func (c *documentCache) reserve(id string) error {
	if _, ok := c.reserved[id]; ok {
		return nil
	}
	if len(c.reserved) >= c.limit {
		return &dereferrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(c.limit),
			Actual:       int64(len(c.reserved) + 1),
			Message:      "too many external documents",
		}
	}
	c.reserved[id] = struct{}{}
	return nil
}

// release frees the slot of a document that failed to load.
func (c *documentCache) release(id string) {
	if _, done := c.docs[id]; !done {
		delete(c.reserved, id)
	}
}

func (c *documentCache) put(id string, doc any) {
	c.reserved[id] = struct{}{}
	c.docs[id] = doc
}

func (c *documentCache) len() int {
	return len(c.docs)
}
