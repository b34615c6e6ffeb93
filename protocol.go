package deepzoom

import (
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// RenderRequest is the host -> core render_request message.
type RenderRequest struct {
	Viewport      Viewport
	CanvasWidth   uint32
	CanvasHeight  uint32
	RendererID    string
	MaxIterations *uint32
}

// Phase enumerates the core -> host progress phases.
type Phase string

const (
	PhaseComputingOrbit Phase = "ComputingOrbit"
	PhaseBuildingBla    Phase = "BuildingBla"
	PhaseRendering      Phase = "Rendering"
	PhaseColorizing     Phase = "Colorizing"
	PhaseComplete       Phase = "Complete"
)

// Progress is a core -> host progress callback payload.
type Progress struct {
	Phase          Phase
	CompletedSteps uint64
	TotalSteps     uint64
	ElapsedMs      uint64
}

// TileCompleteEvent is the core -> host tile_complete callback, streamed as
// tiles finish; the same payload backs both the progressive preview and
// the final cache.
type TileCompleteEvent struct {
	Tile Tile
	Data []PixelResult
	Pass *uint8
}

// ErrorEvent is the core -> host error callback.
type ErrorEvent struct {
	Message string
	Tile    *Tile
}

// Initialize is the worker-protocol handshake message.
type Initialize struct {
	RendererID string `json:"renderer_id"`
}

// Ready acknowledges Initialize.
type Ready struct{}

// StoreReferenceOrbit ships an immutable reference orbit to a worker. The
// orbit and derivative arrays are the bulk of the payload, so they travel
// snappy-compressed (see EncodeStoreReferenceOrbit).
type StoreReferenceOrbit struct {
	OrbitID    uint64      `json:"orbit_id"`
	CRef       F64Pair     `json:"c_ref"`
	Orbit      []F64Pair   `json:"orbit"`
	Derivative []F64Pair   `json:"derivative"`
	EscapedAt  *uint32     `json:"escaped_at"`
	DcMax      BigFloatWire `json:"dc_max"`
	BlaEnabled bool        `json:"bla_enabled"`
}

// OrbitStored acknowledges StoreReferenceOrbit.
type OrbitStored struct {
	OrbitID uint64 `json:"orbit_id"`
}

// RenderTilePerturbation asks a worker to compute one tile against an
// already-stored reference orbit.
type RenderTilePerturbation struct {
	RenderID              uint64  `json:"render_id"`
	Tile                  Tile    `json:"tile"`
	OrbitID               uint64  `json:"orbit_id"`
	DeltaCOrigin          Complex `json:"delta_c_origin"`
	DeltaCStep            BigFloatWire `json:"delta_c_step"`
	MaxIterations         uint32  `json:"max_iterations"`
	TauSq                 float64 `json:"tau_sq"`
	BigfloatThresholdBits uint    `json:"bigfloat_threshold_bits"`
	BlaEnabled            bool    `json:"bla_enabled"`
}

// WorkerTileComplete is a worker's successful reply to
// RenderTilePerturbation.
type WorkerTileComplete struct {
	RenderID      uint64        `json:"render_id"`
	Tile          Tile          `json:"tile"`
	Data          []PixelResult `json:"data"`
	ComputeTimeMs uint64        `json:"compute_time_ms"`
}

// WorkerError is a worker's failed reply to RenderTilePerturbation.
type WorkerError struct {
	RenderID uint64 `json:"render_id"`
	Tile     Tile   `json:"tile"`
	Message  string `json:"message"`
}

// RequestWork is a worker pulling its next tile from the scheduler.
type RequestWork struct {
	RenderID uint64 `json:"render_id"`
}

// NoWork tells a worker the queue is currently empty.
type NoWork struct{}

// Terminate shuts a worker down.
type Terminate struct{}

// EncodeStoreReferenceOrbit JSON-encodes msg and snappy-compresses the
// result, since the orbit/derivative arrays dominate the payload size at
// deep zoom (tens of megabytes at 10^7 iterations).
func EncodeStoreReferenceOrbit(msg StoreReferenceOrbit) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, newError(KindTileError, err, "encode StoreReferenceOrbit")
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeStoreReferenceOrbit reverses EncodeStoreReferenceOrbit.
func DecodeStoreReferenceOrbit(compressed []byte) (StoreReferenceOrbit, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return StoreReferenceOrbit{}, newError(KindTileError, err, "decode StoreReferenceOrbit")
	}
	var msg StoreReferenceOrbit
	if err := json.Unmarshal(raw, &msg); err != nil {
		return StoreReferenceOrbit{}, newError(KindTileError, err, "unmarshal StoreReferenceOrbit")
	}
	return msg, nil
}

// EncodeMessage is a plain JSON envelope for the smaller worker-protocol
// messages (Initialize, RequestWork, Terminate, ...) that don't carry bulk
// orbit data and so don't need snappy framing.
func EncodeMessage(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode worker message")
	}
	return raw, nil
}

// DecodeMessage reverses EncodeMessage into v, which must be a pointer to
// one of the worker-protocol message types.
func DecodeMessage(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "decode worker message")
	}
	return nil
}

// ToStoreReferenceOrbit builds the wire message a scheduler sends to hand
// orbit to a worker under orbitID, carrying the render-wide dc_max the
// worker's BLA lookups are checked against.
func ToStoreReferenceOrbit(orbitID uint64, orbit *ReferenceOrbit, dcMax BigFloat, blaEnabled bool) StoreReferenceOrbit {
	return StoreReferenceOrbit{
		OrbitID:    orbitID,
		CRef:       orbit.CRef,
		Orbit:      orbit.Orbit,
		Derivative: orbit.Derivative,
		EscapedAt:  orbit.EscapedAt,
		DcMax:      dcMax.MarshalWire(),
		BlaEnabled: blaEnabled,
	}
}

// FromStoreReferenceOrbit reconstructs the ReferenceOrbit and dc_max a
// worker stores locally after decoding a StoreReferenceOrbit message.
// Each worker keeps its own copy, never a shared pointer back to the
// scheduler's orbit.
func FromStoreReferenceOrbit(msg StoreReferenceOrbit) (*ReferenceOrbit, BigFloat, error) {
	dcMax, err := UnmarshalWire(msg.DcMax)
	if err != nil {
		return nil, BigFloat{}, newError(KindParseError, err, "decode StoreReferenceOrbit dc_max")
	}
	orbit := &ReferenceOrbit{
		CRef:       msg.CRef,
		Orbit:      msg.Orbit,
		Derivative: msg.Derivative,
		EscapedAt:  msg.EscapedAt,
	}
	return orbit, dcMax, nil
}

// ToRenderTilePerturbation builds the wire message dispatching item to a
// worker that already holds orbitID's orbit, per BroadcastOrbit.
func ToRenderTilePerturbation(item WorkItem, bigfloatThresholdBits uint, blaEnabled bool) RenderTilePerturbation {
	return RenderTilePerturbation{
		RenderID:              item.RenderID,
		Tile:                  item.Tile,
		OrbitID:               item.OrbitID,
		DeltaCOrigin:          item.DeltaCOrigin,
		MaxIterations:         item.MaxIterations,
		TauSq:                 item.TauSq,
		BigfloatThresholdBits: bigfloatThresholdBits,
		BlaEnabled:            blaEnabled,
	}
}

// FromRenderTilePerturbation reconstructs the WorkItem a worker computes
// against from a decoded wire message.
func FromRenderTilePerturbation(msg RenderTilePerturbation) WorkItem {
	return WorkItem{
		RenderID:      msg.RenderID,
		Tile:          msg.Tile,
		OrbitID:       msg.OrbitID,
		DeltaCOrigin:  msg.DeltaCOrigin,
		MaxIterations: msg.MaxIterations,
		TauSq:         msg.TauSq,
	}
}

// ToWorkerTileComplete builds a worker's successful reply to a dispatched
// WorkItem.
func ToWorkerTileComplete(renderID uint64, tile Tile, data []PixelResult) WorkerTileComplete {
	return WorkerTileComplete{RenderID: renderID, Tile: tile, Data: data}
}

// FromWorkerTileComplete reconstructs the TileOutcome a scheduler merges
// from a decoded worker reply.
func FromWorkerTileComplete(msg WorkerTileComplete) TileOutcome {
	return TileOutcome{RenderID: msg.RenderID, Tile: msg.Tile, Data: msg.Data}
}

// ToWorkerError builds a worker's failed reply to a dispatched WorkItem.
func ToWorkerError(renderID uint64, tile Tile, err error) WorkerError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return WorkerError{RenderID: renderID, Tile: tile, Message: msg}
}

// FromWorkerError reconstructs the TileOutcome a scheduler merges from a
// decoded worker failure reply.
func FromWorkerError(msg WorkerError) TileOutcome {
	return TileOutcome{RenderID: msg.RenderID, Tile: msg.Tile, Err: newError(KindTileError, nil, "%s", msg.Message)}
}
