package engine

import (
	"slices"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// Selection holds the selected shapes by key, so positions can shift underneath it
// when remote changes arrive. Indices are resolved against the shape list on use.
type Selection struct {
	keys    map[string]struct{}
	primary string
}

func (s *Selection) Clear() {
	s.keys = nil
	s.primary = ""
}

func (s *Selection) Len() int { return len(s.keys) }

func (s *Selection) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// SelectSingle makes key the only selected shape.
func (s *Selection) SelectSingle(key string) {
	s.keys = map[string]struct{}{key: {}}
	s.primary = key
}

// SelectMany replaces the selection with the shapes at indices. The topmost becomes primary.
func (s *Selection) SelectMany(shapes []shape.Shape, indices []int) {
	s.Clear()
	if len(indices) == 0 {
		return
	}
	s.keys = make(map[string]struct{}, len(indices))
	top := -1
	for _, i := range indices {
		s.keys[shapes[i].Ident().Key] = struct{}{}
		top = max(top, i)
	}
	s.primary = shapes[top].Ident().Key
}

// Indices returns the positions of the selected shapes in ascending order.
func (s *Selection) Indices(shapes []shape.Shape) []int {
	if len(s.keys) == 0 {
		return nil
	}
	out := make([]int, 0, len(s.keys))
	for i, sh := range shapes {
		if s.Has(sh.Ident().Key) {
			out = append(out, i)
		}
	}
	return out
}

// Primary returns the position of the primary shape.
func (s *Selection) Primary(shapes []shape.Shape) (int, bool) {
	if s.primary == "" {
		return -1, false
	}
	for i, sh := range shapes {
		if sh.Ident().Key == s.primary {
			return i, true
		}
	}
	return -1, false
}

// Prune drops keys that no longer exist. A vanished primary is replaced by the topmost
// remaining selected shape.
func (s *Selection) Prune(shapes []shape.Shape) {
	if len(s.keys) == 0 {
		return
	}
	live := make(map[string]struct{}, len(s.keys))
	for _, sh := range shapes {
		if k := sh.Ident().Key; s.Has(k) {
			live[k] = struct{}{}
		}
	}
	s.keys = live
	if len(live) == 0 {
		s.Clear()
		return
	}
	if _, ok := live[s.primary]; ok {
		return
	}
	idx := s.Indices(shapes)
	s.primary = shapes[slices.Max(idx)].Ident().Key
}

// Rekey follows a shape whose key was replaced by a remote update.
func (s *Selection) Rekey(from, to string) {
	if !s.Has(from) {
		return
	}
	delete(s.keys, from)
	s.keys[to] = struct{}{}
	if s.primary == from {
		s.primary = to
	}
}
