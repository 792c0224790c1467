package optimizer

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
)

// pass3 assigns LMA (and, where separately specified, VMA) to every
// section lacking a user-supplied one, honoring declared follows/
// vfollows relationships in topological order (spec §4.7 Pass 3).
func (o *Optimizer) pass3(obj *object.Object) error {
	secs := obj.Sections()

	lmaOrder, err := orderSections(secs, func(s *object.Section) (string, bool) { return s.Follows() })
	if err != nil {
		o.ew.PropagateErr(0, err)
		return err
	}
	placeAddresses(lmaOrder, func(s *object.Section) (uint64, bool) { return s.LMA() }, func(s *object.Section, addr uint64) { s.SetLMA(addr) })

	vmaOrder, err := orderSections(secs, func(s *object.Section) (string, bool) { return s.VFollows() })
	if err != nil {
		o.ew.PropagateErr(0, err)
		return err
	}
	for _, s := range vmaOrder {
		if _, hasVMA := s.VMA(); hasVMA {
			continue
		}
		if _, vfollows := s.VFollows(); vfollows {
			continue
		}
		// No separate VMA requested at all: VMA defaults to LMA.
		lma, _ := s.LMA()
		s.SetVMA(lma)
	}
	placeAddresses(vmaOrder, func(s *object.Section) (uint64, bool) { return s.VMA() }, func(s *object.Section, addr uint64) { s.SetVMA(addr) })

	return nil
}

// placeAddresses walks order, assigning getAddr/setAddr (LMA or VMA) to
// every section that doesn't already have one: previous.address +
// previous.Size(), rounded up to this section's alignment.
func placeAddresses(order []*object.Section, getAddr func(*object.Section) (uint64, bool), setAddr func(*object.Section, uint64)) {
	var running uint64
	for _, s := range order {
		if addr, ok := getAddr(s); ok {
			running = addr
		} else {
			if a := s.Align(); a > 1 {
				running = alignUp(running, a)
			}
			setAddr(s, running)
		}
		running += s.Size()
	}
}

func alignUp(n, boundary uint64) uint64 {
	if boundary == 0 {
		return n
	}
	rem := n % boundary
	if rem == 0 {
		return n
	}
	return n + (boundary - rem)
}

// orderSections topologically sorts secs so that every section with a
// follows/vfollows relationship (named by followOf) comes immediately
// after its target, falling back to declaration order for unconstrained
// sections. A target that doesn't exist among secs, or a follows cycle,
// is an error (spec §4.7: "cycle detected -> error").
func orderSections(secs []*object.Section, followOf func(*object.Section) (string, bool)) ([]*object.Section, error) {
	byName := make(map[string]*object.Section, len(secs))
	for _, s := range secs {
		byName[s.Name()] = s
	}

	followers := make(map[string][]*object.Section)
	var roots []*object.Section
	for _, s := range secs {
		name, ok := followOf(s)
		if !ok {
			roots = append(roots, s)
			continue
		}
		if _, exists := byName[name]; !exists {
			return nil, errwarn.NewError(errwarn.KindValue, "section %1 follows undefined section %2", s.Name(), name)
		}
		followers[name] = append(followers[name], s)
	}

	visited := make(map[string]bool, len(secs))
	visiting := make(map[string]bool, len(secs))
	order := make([]*object.Section, 0, len(secs))

	var visit func(s *object.Section) error
	visit = func(s *object.Section) error {
		if visited[s.Name()] {
			return nil
		}
		if visiting[s.Name()] {
			return errwarn.NewError(errwarn.KindValue, "section placement cycle at %1", s.Name())
		}
		visiting[s.Name()] = true
		order = append(order, s)
		for _, f := range followers[s.Name()] {
			if err := visit(f); err != nil {
				return err
			}
		}
		visiting[s.Name()] = false
		visited[s.Name()] = true
		return nil
	}

	for _, s := range roots {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	for _, s := range secs {
		if !visited[s.Name()] {
			return nil, errwarn.NewError(errwarn.KindValue, "section %1 is part of a follows cycle", s.Name())
		}
	}
	return order, nil
}
