package segmap

import "github.com/tidwall/btree"

// Iterator walks breakpoints in ascending position order. It is lazy
// and only valid while the map is not mutated; call Iterate again to
// restart.
type Iterator struct {
	iter    btree.MapIter[int64, int64]
	started bool
}

func (r *Iterator) Next() bool {
	if !r.started {
		r.started = true
		return r.iter.First()
	}
	return r.iter.Next()
}

func (r *Iterator) Position() int64 {
	return r.iter.Key()
}

func (r *Iterator) Value() int64 {
	return r.iter.Value()
}
