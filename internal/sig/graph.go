package sig

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/ironsheep/omr-tools-mcp/internal/glyph"
)

// ErrUnknownInter is returned when an edge references an inter that is not
// in the graph.
var ErrUnknownInter = errors.New("unknown inter")

// Graph is the interpretation graph of one system.
//
// Graph is safe for concurrent use; mutating operations are serialized.
type Graph struct {
	mu sync.RWMutex

	lastInter ID
	lastEdge  EdgeID

	inters   map[ID]*Inter
	edges    map[EdgeID]*Edge
	incident map[ID][]EdgeID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		inters:   make(map[ID]*Inter),
		edges:    make(map[EdgeID]*Edge),
		incident: make(map[ID][]EdgeID),
	}
}

// Insert adds in to the graph, assigns its identifier and returns it.
func (g *Graph) Insert(in *Inter) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastInter++
	in.ID = g.lastInter
	g.inters[in.ID] = in
	return in.ID
}

// Relate adds a relation edge from a to b.
func (g *Graph) Relate(a, b ID, rel Relation) (EdgeID, error) {
	r := rel
	return g.addEdge(&Edge{Source: a, Target: b, Relation: &r})
}

// Exclude adds an exclusion edge between a and b.
func (g *Graph) Exclude(a, b ID, cause Cause) (EdgeID, error) {
	return g.addEdge(&Edge{Source: a, Target: b, Cause: cause})
}

func (g *Graph) addEdge(e *Edge) (EdgeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []ID{e.Source, e.Target} {
		if _, ok := g.inters[id]; !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownInter, id)
		}
	}
	if e.Source == e.Target {
		return 0, fmt.Errorf("edge loops on inter %d", e.Source)
	}

	g.lastEdge++
	e.ID = g.lastEdge
	g.edges[e.ID] = e
	g.incident[e.Source] = append(g.incident[e.Source], e.ID)
	g.incident[e.Target] = append(g.incident[e.Target], e.ID)
	return e.ID, nil
}

// Reduce resolves the given exclusions and returns the deleted inters in
// ascending identifier order.
//
// The inters involved are visited by decreasing grade, ties by increasing
// identifier. Each inter still alive when visited deletes every live opponent
// across the given exclusions. A survivor therefore always has a grade at
// least equal to the inters it removed. Deleted inters lose all their edges.
func (g *Graph) Reduce(exclusions []EdgeID) []ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	wanted := make(map[EdgeID]bool, len(exclusions))
	involved := make(map[ID]bool)
	for _, eid := range exclusions {
		e, ok := g.edges[eid]
		if !ok || !e.IsExclusion() {
			continue
		}
		wanted[eid] = true
		involved[e.Source] = true
		involved[e.Target] = true
	}

	order := make([]*Inter, 0, len(involved))
	for id := range involved {
		order = append(order, g.inters[id])
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Grade != order[j].Grade {
			return order[i].Grade > order[j].Grade
		}
		return order[i].ID < order[j].ID
	})

	var deleted []ID
	for _, in := range order {
		if _, alive := g.inters[in.ID]; !alive {
			continue
		}
		for _, eid := range append([]EdgeID(nil), g.incident[in.ID]...) {
			if !wanted[eid] {
				continue
			}
			e, ok := g.edges[eid]
			if !ok {
				continue
			}
			opp := e.Opposite(in.ID)
			if _, alive := g.inters[opp]; alive {
				g.removeLocked(opp)
				deleted = append(deleted, opp)
			}
		}
	}

	sort.Slice(deleted, func(i, j int) bool { return deleted[i] < deleted[j] })
	return deleted
}

// Remove deletes an inter and all its edges.
func (g *Graph) Remove(id ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(id)
}

func (g *Graph) removeLocked(id ID) {
	for _, eid := range g.incident[id] {
		e, ok := g.edges[eid]
		if !ok {
			continue
		}
		delete(g.edges, eid)
		opp := e.Opposite(id)
		g.incident[opp] = without(g.incident[opp], eid)
	}
	delete(g.incident, id)
	delete(g.inters, id)
}

func without(ids []EdgeID, eid EdgeID) []EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != eid {
			out = append(out, id)
		}
	}
	return out
}

// Inter returns the inter with the given identifier.
func (g *Graph) Inter(id ID) (*Inter, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	in, ok := g.inters[id]
	return in, ok
}

// InterOf returns the inter of the given kind built on glyph gl, nil if none.
func (g *Graph) InterOf(gl *glyph.Glyph, kind Kind) *Inter {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, in := range g.inters {
		if in.Glyph == gl && in.Kind == kind {
			return in
		}
	}
	return nil
}

// Inters returns the inters matching pred (all when pred is nil), by
// increasing identifier.
func (g *Graph) Inters(pred func(*Inter) bool) []*Inter {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Inter, 0)
	for _, in := range g.inters {
		if pred == nil || pred(in) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OfKind returns a predicate selecting inters of the given kinds.
func OfKind(kinds ...Kind) func(*Inter) bool {
	return func(in *Inter) bool {
		for _, k := range kinds {
			if in.Kind == k {
				return true
			}
		}
		return false
	}
}

// Edges returns the edges incident to id, by increasing identifier.
func (g *Graph) Edges(id ID) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Edge, 0, len(g.incident[id]))
	for _, eid := range g.incident[id] {
		if e, ok := g.edges[eid]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relations returns the relation edges of the given kind incident to id.
func (g *Graph) Relations(id ID, kind RelationKind) []*Edge {
	var out []*Edge
	for _, e := range g.Edges(id) {
		if !e.IsExclusion() && e.Relation.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Edge returns the edge with the given identifier.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	return e, ok
}

// Len returns the number of inters.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.inters)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// StemDirection infers the direction of a stem from its heads: -1 when the
// heads lie below the stem middle (stem up), +1 when above (stem down), 0 when
// unknown or contradictory.
func (g *Graph) StemDirection(stem ID) int {
	st, ok := g.Inter(stem)
	if !ok || st.Glyph == nil {
		return 0
	}
	midY := st.Glyph.Middle().Y

	dir := 0
	for _, e := range g.Relations(stem, HeadStem) {
		head, ok := g.Inter(e.Opposite(stem))
		if !ok {
			continue
		}
		d := 1
		if head.Center().Y > midY {
			d = -1
		}
		if dir != 0 && d != dir {
			return 0
		}
		dir = d
	}
	return dir
}

// SortByAbscissa sorts inters by left abscissa, then identifier.
func SortByAbscissa(inters []*Inter) {
	sort.SliceStable(inters, func(i, j int) bool {
		if inters[i].Bounds.Min.X != inters[j].Bounds.Min.X {
			return inters[i].Bounds.Min.X < inters[j].Bounds.Min.X
		}
		return inters[i].ID < inters[j].ID
	})
}

// IntersectedInters returns the inters of sorted (see SortByAbscissa) whose
// bounds intersect box. The scan stops at the first inter starting right of box.
func IntersectedInters(sorted []*Inter, box image.Rectangle) []*Inter {
	var out []*Inter
	for _, in := range sorted {
		if in.Bounds.Min.X >= box.Max.X {
			break
		}
		if in.Bounds.Overlaps(box) {
			out = append(out, in)
		}
	}
	return out
}
