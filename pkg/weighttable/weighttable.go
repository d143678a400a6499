package weighttable

import (
	"fmt"
	"sync"

	"github.com/wradec/segmap/pkg/segmap"
	"k8s.io/apimachinery/pkg/labels"
)

// WeightTable tracks named weighted claims over integer ranges and
// accumulates their combined intensity in a segment map. Ranges are
// half-open: [from, to).
type WeightTable interface {
	Claim(name string, from, to, weight int64, lbls labels.Set) error
	Release(name string) error

	Get(name string) (Entry, error)

	Count() int
	Has(name string) bool

	GetAll() []Entry
	GetByLabel(selector labels.Selector) []Entry

	Profile() []segmap.Breakpoint
	ProfileString() string
}

type Entry struct {
	Name   string
	From   int64
	To     int64
	Weight int64
	Labels labels.Set
}

func New() WeightTable {
	return &weightTable{
		m:       new(sync.RWMutex),
		claims:  map[string]Entry{},
		profile: segmap.New(),
	}
}

type weightTable struct {
	m       *sync.RWMutex
	claims  map[string]Entry
	profile segmap.SegmentMap
}

func (r *weightTable) Claim(name string, from, to, weight int64, lbls labels.Set) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.claims[name]; ok {
		return fmt.Errorf("claim %s already exists", name)
	}
	// validate the range before recording the claim
	if err := r.profile.Add(from, to, weight); err != nil {
		return err
	}
	r.claims[name] = Entry{
		Name:   name,
		From:   from,
		To:     to,
		Weight: weight,
		Labels: lbls,
	}
	return nil
}

func (r *weightTable) Release(name string) error {
	r.m.Lock()
	defer r.m.Unlock()

	e, ok := r.claims[name]
	if !ok {
		return fmt.Errorf("claim %s not found", name)
	}
	if err := r.profile.Add(e.From, e.To, -e.Weight); err != nil {
		return err
	}
	delete(r.claims, name)
	return nil
}

func (r *weightTable) Get(name string) (Entry, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	e, ok := r.claims[name]
	if !ok {
		return Entry{}, fmt.Errorf("no match found for: %s", name)
	}
	return e, nil
}

func (r *weightTable) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.claims)
}

func (r *weightTable) Has(name string) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.claims[name]
	return ok
}

func (r *weightTable) GetAll() []Entry {
	r.m.RLock()
	defer r.m.RUnlock()

	entries := make([]Entry, 0, len(r.claims))
	for _, e := range r.claims {
		entries = append(entries, e)
	}
	return entries
}

func (r *weightTable) GetByLabel(selector labels.Selector) []Entry {
	r.m.RLock()
	defer r.m.RUnlock()

	var entries []Entry
	for _, e := range r.claims {
		if selector.Matches(e.Labels) {
			entries = append(entries, e)
		}
	}
	return entries
}

func (r *weightTable) Profile() []segmap.Breakpoint {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.profile.GetAll()
}

func (r *weightTable) ProfileString() string {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.profile.String()
}
