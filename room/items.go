package room

import (
	"encoding/json"
	"fmt"
	"strconv"

	"whiteboard-server/core"
)

// Items is an insertion-ordered registry of boards or images keyed by
// the client-supplied item id. Duplicate adds and updates or deletes
// for unknown ids are silent no-ops: they are expected races (two tabs
// adding the same item, an update crossing a delete), not faults.
//
// Items is not safe for concurrent use; callers mutate it under the
// owning room's lock.
type Items struct {
	entries map[string]core.Item
	order   []string
}

func NewItems() *Items {
	return &Items{entries: make(map[string]core.Item)}
}

// Key canonicalizes a client-supplied item id for registry lookup. Ids
// are opaque; clients usually send millisecond timestamps, which the
// wire decodes as float64.
func Key(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Add inserts item unless its id is already present. A duplicate add is
// ignored and reported with ok=false.
func (r *Items) Add(item core.Item) bool {
	key := Key(item.ID)
	if _, exists := r.entries[key]; exists {
		return false
	}
	r.entries[key] = item
	r.order = append(r.order, key)
	return true
}

// Update replaces the stored record wholesale. Updating an unknown id
// changes nothing; a delete may have raced ahead of the update.
func (r *Items) Update(item core.Item) bool {
	key := Key(item.ID)
	if _, exists := r.entries[key]; !exists {
		return false
	}
	r.entries[key] = item
	return true
}

// Delete removes the record for id if present.
func (r *Items) Delete(id any) bool {
	key := Key(id)
	if _, exists := r.entries[key]; !exists {
		return false
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns all current items in insertion order, for syncing a
// newly joined connection.
func (r *Items) Snapshot() []core.Item {
	out := make([]core.Item, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

// Len reports the number of stored items.
func (r *Items) Len() int { return len(r.entries) }
