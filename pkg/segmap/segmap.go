package segmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/btree"
)

// ErrInvalidRange is returned when a range's lower bound exceeds its
// upper bound. Use errors.Is to classify.
var ErrInvalidRange = errors.New("invalid range")

// Breakpoint marks a position where the step function changes value.
// The value holds from Position up to the next breakpoint.
type Breakpoint struct {
	Position int64
	Value    int64
}

// SegmentMap is a piecewise-constant integer function over the whole
// integer line, 0 outside explicitly touched ranges. Ranges are
// half-open: [from, to).
type SegmentMap interface {
	Add(from, to, amount int64) error
	Set(from, to, amount int64) error

	Iterate() *Iterator

	Count() int
	GetAll() []Breakpoint
	Clear()

	String() string
}

func New() SegmentMap {
	return &segMap{}
}

type segMap struct {
	// keys are positions where the function changes value, kept in
	// canonical minimal form: no entry repeats its predecessor's value
	// and the first entry is never 0
	tree btree.Map[int64, int64]
}

// Add increases the function by amount over [from, to).
func (r *segMap) Add(from, to, amount int64) error {
	if err := r.validate(from, to); err != nil {
		return err
	}
	if from == to || amount == 0 {
		return nil
	}
	r.split(from)
	r.split(to)

	for _, k := range r.keysBefore(from, to) {
		v, _ := r.tree.Get(k)
		r.tree.Set(k, v+amount)
	}
	r.canonicalize(from, to)
	return nil
}

// Set overwrites the function to exactly amount over [from, to).
func (r *segMap) Set(from, to, amount int64) error {
	if err := r.validate(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	r.split(from)
	r.split(to)

	for _, k := range r.keysBefore(from, to) {
		r.tree.Delete(k)
	}
	r.tree.Set(from, amount)
	r.canonicalize(from, to)
	return nil
}

func (r *segMap) Iterate() *Iterator {
	return &Iterator{iter: r.tree.Iter()}
}

func (r *segMap) Count() int {
	return r.tree.Len()
}

func (r *segMap) GetAll() []Breakpoint {
	entries := make([]Breakpoint, 0, r.tree.Len())
	r.tree.Scan(func(k, v int64) bool {
		entries = append(entries, Breakpoint{Position: k, Value: v})
		return true
	})
	return entries
}

func (r *segMap) Clear() {
	r.tree.Clear()
}

// String renders the breakpoints as "k1: v1, k2: v2" in ascending
// position order. An empty map renders as the empty string.
func (r *segMap) String() string {
	var sb strings.Builder
	first := true
	r.tree.Scan(func(k, v int64) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%d: %d", k, v)
		return true
	})
	return sb.String()
}

func (r *segMap) validate(from, to int64) error {
	if from > to {
		return fmt.Errorf("%w: from %d is greater than to %d", ErrInvalidRange, from, to)
	}
	return nil
}

// split ensures a breakpoint exists at pos, carrying the value the
// function already has there so the surrounding segment is unchanged.
func (r *segMap) split(pos int64) {
	if _, ok := r.tree.Get(pos); ok {
		return
	}
	r.tree.Set(pos, r.implied(pos))
}

// implied returns the function's value at pos: the value of the
// greatest breakpoint at or below pos, or 0 if none precedes it.
func (r *segMap) implied(pos int64) int64 {
	val := int64(0)
	r.tree.Descend(pos, func(k, v int64) bool {
		val = v
		return false
	})
	return val
}

// keysBefore collects the breakpoint positions in [from, to). Keys are
// snapshotted so the caller can mutate the tree while walking them.
func (r *segMap) keysBefore(from, to int64) []int64 {
	var keys []int64
	r.tree.Ascend(from, func(k, v int64) bool {
		if k >= to {
			return false
		}
		keys = append(keys, k)
		return true
	})
	return keys
}

// canonicalize removes breakpoints in [from, to] that repeat the value
// of their predecessor (0 when there is none). Breakpoints past to are
// untouched by Add/Set and stay canonical relative to the one at to.
func (r *segMap) canonicalize(from, to int64) {
	prev := int64(0)
	iter := r.tree.Iter()
	if iter.Seek(from) {
		if iter.Prev() {
			prev = iter.Value()
		}
	} else if iter.Last() {
		prev = iter.Value()
	}

	var keys []int64
	r.tree.Ascend(from, func(k, v int64) bool {
		if k > to {
			return false
		}
		keys = append(keys, k)
		return true
	})
	for _, k := range keys {
		v, _ := r.tree.Get(k)
		if v == prev {
			r.tree.Delete(k)
			continue
		}
		prev = v
	}
}
