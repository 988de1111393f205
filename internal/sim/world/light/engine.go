// Package light floods sky and block light through a ChunkManager.
//
// Both channels share one depth-first work list. A neighbour is raised to
// current-1 when that is brighter than what it holds; sky light travelling
// straight down at full strength keeps full strength, so open columns stay
// lit to the first obstruction.
package light

import (
	"sort"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// Blocks is the block-property view the engine needs. catalogs.Registry
// satisfies it.
type Blocks interface {
	IsOpaque(id uint8) bool
	TransmitsLight(id uint8, f face.Face) bool
	Emission(id uint8) uint8
}

type Channel uint8

const (
	Block Channel = iota
	Sky
)

func (c Channel) String() string {
	if c == Sky {
		return "sky"
	}
	return "block"
}

func (c Channel) sky() bool { return c == Sky }

type node struct {
	pos store.LocalPos
	key store.ChunkKey
}

type darkNode struct {
	node
	level uint8
}

type Engine struct {
	chunks *store.ChunkManager
	blocks Blocks

	stack   []node
	dark    []darkNode
	touched map[store.ChunkKey]struct{}
	visited uint64
}

func NewEngine(chunks *store.ChunkManager, blocks Blocks) *Engine {
	return &Engine{
		chunks:  chunks,
		blocks:  blocks,
		touched: map[store.ChunkKey]struct{}{},
	}
}

// Visited is the number of work-list nodes processed since the last reset.
func (e *Engine) Visited() uint64 { return e.visited }

// Touched returns every chunk whose light, or whose mesh input, changed since
// the last ResetTouched, sorted by key.
func (e *Engine) Touched() []store.ChunkKey {
	out := make([]store.ChunkKey, 0, len(e.touched))
	for k := range e.touched {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CX != out[j].CX {
			return out[i].CX < out[j].CX
		}
		return out[i].CZ < out[j].CZ
	})
	return out
}

func (e *Engine) ResetTouched() {
	clear(e.touched)
	e.visited = 0
}

func (e *Engine) set(ch *store.Chunk, p store.LocalPos, c Channel, v uint8) {
	ch.SetLight(p, c.sky(), v)
	for _, k := range store.AffectedKeys(ch.Key(), p) {
		e.touched[k] = struct{}{}
	}
}

// neighbour resolves the cell across face f, or ok=false when it lies in an
// unloaded chunk or outside the world's vertical range.
func (e *Engine) neighbour(n node, f face.Face) (*store.Chunk, node, bool) {
	ch, ok := e.chunks.GetChunk(n.key)
	if !ok {
		return nil, node{}, false
	}
	wp := ch.ToWorld(n.pos).Add(f.Normal())
	nk := store.KeyOfBlock(wp)
	nch, ok := e.chunks.GetChunk(nk)
	if !ok {
		return nil, node{}, false
	}
	lp := store.LocalOf(wp)
	if !nch.ContainsLocal(lp) {
		return nil, node{}, false
	}
	return nch, node{pos: lp, key: nk}, true
}

func (e *Engine) resolve(pos store.BlockPos) (*store.Chunk, node, bool) {
	k := store.KeyOfBlock(pos)
	ch, ok := e.chunks.GetChunk(k)
	if !ok {
		return nil, node{}, false
	}
	lp := store.LocalOf(pos)
	if !lp.Valid() {
		return nil, node{}, false
	}
	return ch, node{pos: lp, key: k}, true
}

// Clear zeroes one channel in every loaded chunk.
func (e *Engine) Clear(c Channel) {
	for _, ch := range e.chunks.All() {
		for i := range ch.Subs {
			s := &ch.Subs[i]
			if c.sky() {
				s.Sky = [store.ChunkSize][store.ChunkSize][store.ChunkSize]uint8{}
			} else {
				s.Glow = [store.ChunkSize][store.ChunkSize][store.ChunkSize]uint8{}
			}
		}
		e.touched[ch.Key()] = struct{}{}
	}
}

// SeedSky lights every column from the ceiling down to the first cell that
// will not take light through its top face. Only lit cells with a darker
// sideways neighbour are queued. Call Propagate(Sky) afterwards.
func (e *Engine) SeedSky() {
	chunks := e.chunks.All()
	floors := make([][store.ChunkSize][store.ChunkSize]int, len(chunks))
	for i, ch := range chunks {
		for z := 0; z < store.ChunkSize; z++ {
			for x := 0; x < store.ChunkSize; x++ {
				floor := store.Height
				for y := store.Height - 1; y >= 0; y-- {
					p := store.LocalPos{X: x, Y: y, Z: z}
					id, _ := ch.GetBlockUnchecked(p)
					if y == store.Height-1 {
						if e.blocks.IsOpaque(id) {
							break
						}
					} else if !e.blocks.TransmitsLight(id, face.Top) {
						break
					}
					e.set(ch, p, Sky, store.MaxLight)
					floor = y
				}
				floors[i][z][x] = floor
			}
		}
	}

	sides := [4]face.Face{face.Left, face.Right, face.Front, face.Back}
	for i, ch := range chunks {
		k := ch.Key()
		for z := 0; z < store.ChunkSize; z++ {
			for x := 0; x < store.ChunkSize; x++ {
				for y := floors[i][z][x]; y < store.Height; y++ {
					n := node{pos: store.LocalPos{X: x, Y: y, Z: z}, key: k}
					if e.litSideways(n, sides) {
						e.stack = append(e.stack, n)
					}
				}
			}
		}
	}
}

// litSideways reports whether some neighbour across sides would take more
// sky light from n than it holds.
func (e *Engine) litSideways(n node, sides [4]face.Face) bool {
	for _, f := range sides {
		nch, nn, ok := e.neighbour(n, f)
		if !ok {
			continue
		}
		if nch.GetLight(nn.pos, true) >= store.MaxLight-1 {
			continue
		}
		id, _ := nch.GetBlockUnchecked(nn.pos)
		if e.blocks.TransmitsLight(id, f.Opposite()) {
			return true
		}
	}
	return false
}

// PropagateSky seeds every column and drains the sky channel.
func (e *Engine) PropagateSky() {
	e.SeedSky()
	e.Propagate(Sky)
}

// SeedEmitters queues every block whose id emits light.
func (e *Engine) SeedEmitters() {
	for _, ch := range e.chunks.All() {
		k := ch.Key()
		for y := 0; y < store.Height; y++ {
			for z := 0; z < store.ChunkSize; z++ {
				for x := 0; x < store.ChunkSize; x++ {
					p := store.LocalPos{X: x, Y: y, Z: z}
					id, ok := ch.GetBlockUnchecked(p)
					if !ok {
						continue
					}
					if lvl := e.blocks.Emission(id); lvl > 0 && lvl > ch.GetLight(p, false) {
						e.set(ch, p, Block, lvl)
						e.stack = append(e.stack, node{pos: p, key: k})
					}
				}
			}
		}
	}
}

// PlaceSource sets block light at pos to level and floods from it. Returns
// false when pos is not in a loaded chunk.
func (e *Engine) PlaceSource(pos store.BlockPos, level uint8) bool {
	ch, n, ok := e.resolve(pos)
	if !ok {
		return false
	}
	e.set(ch, n.pos, Block, min(level, store.MaxLight))
	e.stack = append(e.stack, n)
	e.Propagate(Block)
	return true
}

// Propagate drains the work list on channel c.
func (e *Engine) Propagate(c Channel) {
	for len(e.stack) > 0 {
		n := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		e.visited++

		ch, ok := e.chunks.GetChunk(n.key)
		if !ok {
			continue
		}
		cur := ch.GetLight(n.pos, c.sky())
		if cur == 0 {
			continue
		}
		for _, f := range face.All {
			nch, nn, ok := e.neighbour(n, f)
			if !ok {
				continue
			}
			id, _ := nch.GetBlockUnchecked(nn.pos)
			if !e.blocks.TransmitsLight(id, f.Opposite()) {
				continue
			}
			want := cur - 1
			if c.sky() && f == face.Bottom && cur == store.MaxLight {
				want = cur
			}
			if nch.GetLight(nn.pos, c.sky()) < want {
				e.set(nch, nn.pos, c, want)
				e.stack = append(e.stack, nn)
			}
		}
	}
}

// Remove darkens pos on both channels along with every cell whose light
// depended on it, then refills the darkened region from its lit border.
func (e *Engine) Remove(pos store.BlockPos) {
	for _, c := range []Channel{Sky, Block} {
		e.remove(pos, c)
	}
}

func (e *Engine) remove(pos store.BlockPos, c Channel) {
	ch, n, ok := e.resolve(pos)
	if !ok {
		return
	}
	lvl := ch.GetLight(n.pos, c.sky())
	if lvl == 0 {
		return
	}
	e.set(ch, n.pos, c, 0)
	e.dark = append(e.dark[:0], darkNode{node: n, level: lvl})
	var emitters []node

	for len(e.dark) > 0 {
		d := e.dark[len(e.dark)-1]
		e.dark = e.dark[:len(e.dark)-1]
		e.visited++
		for _, f := range face.All {
			nch, nn, ok := e.neighbour(d.node, f)
			if !ok {
				continue
			}
			nl := nch.GetLight(nn.pos, c.sky())
			if nl == 0 {
				continue
			}
			column := c.sky() && f == face.Bottom && d.level == store.MaxLight && nl == store.MaxLight
			if nl < d.level || column {
				e.set(nch, nn.pos, c, 0)
				e.dark = append(e.dark, darkNode{node: nn, level: nl})
				if !c.sky() {
					if id, ok := nch.GetBlockUnchecked(nn.pos); ok && e.blocks.Emission(id) > 0 {
						emitters = append(emitters, nn)
					}
				}
				continue
			}
			e.stack = append(e.stack, nn)
		}
	}
	// Emitters caught in the dark region shine again at their own level.
	for _, n := range emitters {
		ch, ok := e.chunks.GetChunk(n.key)
		if !ok {
			continue
		}
		id, _ := ch.GetBlockUnchecked(n.pos)
		if lvl := e.blocks.Emission(id); lvl > ch.GetLight(n.pos, false) {
			e.set(ch, n.pos, Block, min(lvl, store.MaxLight))
			e.stack = append(e.stack, n)
		}
	}
	e.Propagate(c)
}

// Refill queues the lit neighbours of pos on both channels so light flows
// back into a cell that stopped blocking it. Emitters are reseeded.
func (e *Engine) Refill(pos store.BlockPos) {
	ch, n, ok := e.resolve(pos)
	if !ok {
		return
	}
	id, present := ch.GetBlockUnchecked(n.pos)
	for _, c := range []Channel{Sky, Block} {
		if c == Sky && n.pos.Y == store.Height-1 && !e.blocks.IsOpaque(id) {
			e.set(ch, n.pos, Sky, store.MaxLight)
			e.stack = append(e.stack, n)
		}
		if c == Block && present {
			if lvl := e.blocks.Emission(id); lvl > ch.GetLight(n.pos, false) {
				e.set(ch, n.pos, Block, lvl)
				e.stack = append(e.stack, n)
			}
		}
		for _, f := range face.All {
			_, nn, ok := e.neighbour(n, f)
			if ok {
				e.stack = append(e.stack, nn)
			}
		}
		e.Propagate(c)
	}
}

// Relight recomputes both channels for the whole manager.
func (e *Engine) Relight() {
	e.Clear(Sky)
	e.Clear(Block)
	e.PropagateSky()
	e.SeedEmitters()
	e.Propagate(Block)
}
