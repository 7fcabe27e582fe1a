package form

import (
	"sort"

	"github.com/mohae/deepcopy"
)

// Record maps field names to values.
type Record map[string]any

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a structural copy of r that shares no mutable storage.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return deepcopy.Copy(r).(Record)
}

// cloneValue returns a structural copy of a single field value.
func cloneValue(v any) any {
	return deepcopy.Copy(v)
}

// copyErrors returns a shallow copy of an error map. Never nil.
func copyErrors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
