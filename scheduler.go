package deepzoom

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"
)

// WorkItem is a single dispatchable unit of work: a tile to render against
// a given reference orbit, tagged with the render_id it belongs to so
// stale results can be recognized and dropped.
type WorkItem struct {
	RenderID      uint64
	Tile          Tile
	OrbitID       uint64
	DeltaCOrigin  Complex
	MaxIterations uint32
	TauSq         float64
}

// TileOutcome is what a worker reports back for one WorkItem: either a
// completed pixel buffer or an error message, never both.
type TileOutcome struct {
	RenderID uint64
	Tile     Tile
	Data     []PixelResult
	Err      error
}

// Scheduler dispatches tiles to a fixed pool of workers over channels.
// Workers share nothing but the queue and the atomic render_id; all
// communication is message-passing, with no shared memory or locks on
// the hot path.
type Scheduler struct {
	renderID   uint64 // atomic
	numWorkers int

	workMu sync.Mutex
	queue  []WorkItem

	outcomes chan TileOutcome

	retriesMu sync.Mutex
	retried   map[Tile]bool

	orbitsMu sync.Mutex
	orbits   map[uint64]*ReferenceOrbit
}

// NewScheduler builds a Scheduler with numWorkers CPU workers.
func NewScheduler(numWorkers int) *Scheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Scheduler{
		numWorkers: numWorkers,
		outcomes:   make(chan TileOutcome, numWorkers*4),
		retried:    make(map[Tile]bool),
		orbits:     make(map[uint64]*ReferenceOrbit),
	}
}

// BroadcastOrbit hands orbit to every worker under orbitID as a real
// StoreReferenceOrbit message: JSON-encoded and snappy-compressed (the
// orbit/derivative arrays dominate payload size at deep zoom), then
// decoded back into the copy a worker actually stores and computes
// against. Workers share nothing, so the returned orbit -- not the
// original pointer -- is what WorkItems tagged with orbitID are dispatched
// against; callers must use it in place of the pointer they passed in.
func (s *Scheduler) BroadcastOrbit(orbitID uint64, orbit *ReferenceOrbit, dcMax BigFloat) (*ReferenceOrbit, error) {
	wire, err := EncodeStoreReferenceOrbit(ToStoreReferenceOrbit(orbitID, orbit, dcMax, true))
	if err != nil {
		return nil, err
	}
	msg, err := DecodeStoreReferenceOrbit(wire)
	if err != nil {
		return nil, err
	}
	stored, _, err := FromStoreReferenceOrbit(msg)
	if err != nil {
		return nil, err
	}

	s.orbitsMu.Lock()
	s.orbits[orbitID] = stored
	s.orbitsMu.Unlock()

	return stored, nil
}

// Orbit returns the orbit most recently broadcast under id, if any.
func (s *Scheduler) Orbit(id uint64) (*ReferenceOrbit, bool) {
	s.orbitsMu.Lock()
	defer s.orbitsMu.Unlock()
	o, ok := s.orbits[id]
	return o, ok
}

// CurrentRenderID returns the render_id new work items should be tagged
// with.
func (s *Scheduler) CurrentRenderID() uint64 {
	return atomic.LoadUint64(&s.renderID)
}

// StartRender bumps the render_id, invalidating every in-flight tile from
// the previous render, and loads a fresh center-out ordered queue.
func (s *Scheduler) StartRender(items []WorkItem, canvasW, canvasH uint32) uint64 {
	id := atomic.AddUint64(&s.renderID, 1)

	tiles := make([]Tile, len(items))
	for i, it := range items {
		tiles[i] = it.Tile
	}
	ordered := CenterOutOrder(tiles, canvasW, canvasH)

	byTile := make(map[Tile]WorkItem, len(items))
	for _, it := range items {
		byTile[it.Tile] = it
	}

	queue := make([]WorkItem, 0, len(ordered))
	for _, t := range ordered {
		it := byTile[t]
		it.RenderID = id
		queue = append(queue, it)
	}

	s.workMu.Lock()
	s.queue = queue
	s.workMu.Unlock()

	s.retriesMu.Lock()
	s.retried = make(map[Tile]bool)
	s.retriesMu.Unlock()

	return id
}

// Cancel bumps the render_id without loading new work, so every
// currently-queued or in-flight item becomes stale and is dropped once it
// completes: cancellation is cooperative, never preemptive.
func (s *Scheduler) Cancel() {
	atomic.AddUint64(&s.renderID, 1)
	s.workMu.Lock()
	s.queue = nil
	s.workMu.Unlock()
}

// RequestWork pops the next queued item, or reports ok=false if the queue
// is currently empty (the NoWork reply).
func (s *Scheduler) RequestWork() (WorkItem, bool) {
	s.workMu.Lock()
	defer s.workMu.Unlock()
	if len(s.queue) == 0 {
		return WorkItem{}, false
	}
	it := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	return it, true
}

// Requeue puts item back at the front of the queue; used for the single
// retry granted to a failed tile.
func (s *Scheduler) Requeue(item WorkItem) {
	s.workMu.Lock()
	s.queue = append([]WorkItem{item}, s.queue...)
	s.workMu.Unlock()
}

// IsStale reports whether renderID no longer matches the scheduler's
// current render, meaning any result tagged with it should be dropped.
func (s *Scheduler) IsStale(renderID uint64) bool {
	return renderID != s.CurrentRenderID()
}

// TileComplete records a worker's successful result. Callers drain
// Outcomes() to merge results into an Accumulator; stale outcomes are
// still delivered so callers can count/log them, but IsStale tells them to
// discard rather than merge.
func (s *Scheduler) TileComplete(outcome TileOutcome) {
	s.outcomes <- outcome
}

// TileError records a worker's failure. The scheduler retries the tile
// exactly once; a second failure is surfaced to the caller via Outcomes()
// with Err set, and rendering continues with the remaining tiles.
func (s *Scheduler) TileError(item WorkItem, err error) {
	s.retriesMu.Lock()
	already := s.retried[item.Tile]
	s.retried[item.Tile] = true
	s.retriesMu.Unlock()

	if !already && !s.IsStale(item.RenderID) {
		s.Requeue(item)
		return
	}

	s.outcomes <- TileOutcome{RenderID: item.RenderID, Tile: item.Tile, Err: newError(KindWorkerCrash, err, "tile %v failed after retry", item.Tile)}
}

// dispatchWire round-trips item through the RenderTilePerturbation wire
// message, returning the WorkItem a worker would actually decode and
// compute against.
func dispatchWire(item WorkItem) (WorkItem, error) {
	raw, err := EncodeMessage(ToRenderTilePerturbation(item, 0, true))
	if err != nil {
		return WorkItem{}, err
	}
	var msg RenderTilePerturbation
	if err := DecodeMessage(raw, &msg); err != nil {
		return WorkItem{}, err
	}
	return FromRenderTilePerturbation(msg), nil
}

// Outcomes returns the channel completed/failed tiles are delivered on.
func (s *Scheduler) Outcomes() <-chan TileOutcome {
	return s.outcomes
}

// Run starts the worker pool: numWorkers goroutines each loop pulling
// work via RequestWork and invoking compute, reporting through
// TileComplete/TileError. Run returns immediately; callers stop the pool
// by closing done.
//
// Each dispatch actually crosses the wire protocol rather than handing
// compute a live WorkItem: the item is encoded as a RenderTilePerturbation
// message and decoded back before compute runs, and compute's result is
// encoded as a WorkerTileComplete/WorkerError reply and decoded back
// before it reaches TileComplete/TileError -- the same message boundary a
// separate-process or GPU worker would cross, just paid for in-process.
func (s *Scheduler) Run(done <-chan struct{}, compute func(WorkItem) ([]PixelResult, error)) {
	var wg sync.WaitGroup
	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				item, ok := s.RequestWork()
				if !ok {
					select {
					case <-done:
						return
					case <-time.After(time.Millisecond):
						continue
					}
				}

				if s.IsStale(item.RenderID) {
					continue
				}

				dispatched, err := dispatchWire(item)
				if err != nil {
					s.TileError(item, err)
					continue
				}

				data, computeErr := compute(dispatched)
				if computeErr != nil {
					reply, encErr := EncodeMessage(ToWorkerError(item.RenderID, item.Tile, computeErr))
					if encErr != nil {
						s.TileError(item, computeErr)
						continue
					}
					var wireErr WorkerError
					if err := DecodeMessage(reply, &wireErr); err != nil {
						s.TileError(item, computeErr)
						continue
					}
					s.TileError(item, FromWorkerError(wireErr).Err)
					continue
				}

				reply, err := EncodeMessage(ToWorkerTileComplete(item.RenderID, item.Tile, data))
				if err != nil {
					s.TileError(item, err)
					continue
				}
				var wireComplete WorkerTileComplete
				if err := DecodeMessage(reply, &wireComplete); err != nil {
					s.TileError(item, err)
					continue
				}
				s.TileComplete(FromWorkerTileComplete(wireComplete))
			}
		}()
	}
}
