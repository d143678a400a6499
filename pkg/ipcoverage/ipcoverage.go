package ipcoverage

import (
	"fmt"
	"math/big"
	"net/netip"
	"sync"

	"github.com/hansthienpondt/nipam/pkg/table"
	"github.com/wradec/segmap/pkg/segmap"
	"go4.org/netipx"
	"k8s.io/apimachinery/pkg/labels"
)

// Coverage tracks how many claimed address ranges overlap each address
// inside a fixed scope.
type Coverage interface {
	Claim(rng string, d table.Route) error
	Release(rng string) error

	Depth(addr string) (int64, error)

	Count() int
	Has(rng string) bool

	GetAll() table.Routes
	GetByLabel(selector labels.Selector) table.Routes

	String() string
}

func New(from, to netip.Addr) Coverage {
	return &ipCoverage{
		m:       new(sync.RWMutex),
		claims:  map[string]claim{},
		depth:   segmap.New(),
		ipRange: netipx.IPRangeFrom(from, to),
	}
}

type claim struct {
	rng   netipx.IPRange
	route table.Route
}

type ipCoverage struct {
	m       *sync.RWMutex
	claims  map[string]claim
	depth   segmap.SegmentMap
	ipRange netipx.IPRange
}

func (r *ipCoverage) Claim(rng string, d table.Route) error {
	r.m.Lock()
	defer r.m.Unlock()

	claimRange, err := r.validateRange(rng)
	if err != nil {
		return err
	}
	if _, ok := r.claims[rng]; ok {
		return fmt.Errorf("claim failed range %s already claimed", rng)
	}
	// an inclusive address range covers offsets [from, to+1)
	from := calculateIndex(claimRange.From(), r.ipRange.From())
	to := calculateIndex(claimRange.To(), r.ipRange.From())
	if err := r.depth.Add(from, to+1, 1); err != nil {
		return err
	}
	r.claims[rng] = claim{rng: claimRange, route: d}
	return nil
}

func (r *ipCoverage) Release(rng string) error {
	r.m.Lock()
	defer r.m.Unlock()

	c, ok := r.claims[rng]
	if !ok {
		return fmt.Errorf("release failed range %s not claimed", rng)
	}
	from := calculateIndex(c.rng.From(), r.ipRange.From())
	to := calculateIndex(c.rng.To(), r.ipRange.From())
	if err := r.depth.Add(from, to+1, -1); err != nil {
		return err
	}
	delete(r.claims, rng)
	return nil
}

// Depth returns the number of claims covering addr.
func (r *ipCoverage) Depth(addr string) (int64, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	claimIP, err := r.validateIP(addr)
	if err != nil {
		return 0, err
	}
	id := calculateIndex(claimIP, r.ipRange.From())

	// the depth at an offset is the value of the last breakpoint at or
	// below it
	depth := int64(0)
	iter := r.depth.Iterate()
	for iter.Next() {
		if iter.Position() > id {
			break
		}
		depth = iter.Value()
	}
	return depth, nil
}

func (r *ipCoverage) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.claims)
}

func (r *ipCoverage) Has(rng string) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.claims[rng]
	return ok
}

func (r *ipCoverage) GetAll() table.Routes {
	r.m.RLock()
	defer r.m.RUnlock()

	var routes table.Routes
	for _, c := range r.claims {
		routes = append(routes, c.route)
	}
	return routes
}

func (r *ipCoverage) GetByLabel(selector labels.Selector) table.Routes {
	r.m.RLock()
	defer r.m.RUnlock()

	var routes table.Routes
	for _, c := range r.claims {
		if selector.Matches(c.route.Labels()) {
			routes = append(routes, c.route)
		}
	}
	return routes
}

func (r *ipCoverage) String() string {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.depth.String()
}

func (r *ipCoverage) validateRange(rng string) (netipx.IPRange, error) {
	claimRange, err := netipx.ParseIPRange(rng)
	if err != nil {
		return netipx.IPRange{}, fmt.Errorf("ip range %s is invalid", rng)
	}
	if !r.ipRange.Contains(claimRange.From()) || !r.ipRange.Contains(claimRange.To()) {
		return netipx.IPRange{}, fmt.Errorf("ip range %s, does not fit in the range from %s to %s", rng, r.ipRange.From().String(), r.ipRange.To().String())
	}
	return claimRange, nil
}

func (r *ipCoverage) validateIP(addr string) (netip.Addr, error) {
	claimIP, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("ip address %s is invalid", addr)
	}
	if !r.ipRange.Contains(claimIP) {
		return netip.Addr{}, fmt.Errorf("ip address %s, does not fit in the range from %s to %s", addr, r.ipRange.From().String(), r.ipRange.To().String())
	}
	return claimIP, nil
}

func calculateIndex(ip, start netip.Addr) int64 {
	// Calculate the offset from the start of the coverage scope
	return new(big.Int).Sub(ipToInt(ip), ipToInt(start)).Int64()
}

func ipToInt(ip netip.Addr) *big.Int {
	// Convert IP address to big integer
	bytes := ip.As16()
	ipInt := new(big.Int)
	ipInt.SetBytes(bytes[:])
	return ipInt
}
