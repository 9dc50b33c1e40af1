// Package index provides the multi-value secondary index shared by every
// store. Buckets are deleted when they empty so long-lived indexes do not
// accumulate dead keys.
package index

// Index maps a derived key to the set of entity ids carrying it.
type Index struct {
	buckets map[string]map[string]struct{}
}

// New allocates an empty index.
func New() *Index {
	return &Index{buckets: make(map[string]map[string]struct{})}
}

// Add inserts id under key. Empty keys are ignored.
func (x *Index) Add(key, id string) {
	if key == "" {
		return
	}
	set, ok := x.buckets[key]
	if !ok {
		set = make(map[string]struct{})
		x.buckets[key] = set
	}
	set[id] = struct{}{}
}

// Remove deletes id from key's bucket, dropping the bucket when it empties.
func (x *Index) Remove(key, id string) {
	set, ok := x.buckets[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(x.buckets, key)
	}
}

// Get returns the ids stored under key.
func (x *Index) Get(key string) []string {
	set, ok := x.buckets[key]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Has reports whether id is stored under key.
func (x *Index) Has(key, id string) bool {
	set, ok := x.buckets[key]
	if !ok {
		return false
	}
	_, ok = set[id]
	return ok
}

// Count returns the number of ids under key.
func (x *Index) Count(key string) int {
	return len(x.buckets[key])
}

// Keys returns every key with at least one id.
func (x *Index) Keys() []string {
	keys := make([]string, 0, len(x.buckets))
	for k := range x.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of live buckets.
func (x *Index) Len() int {
	return len(x.buckets)
}
