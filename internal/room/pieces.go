package room

import (
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
)

// spawnPos is where freshly spawned pieces appear; they are already held by
// the spawner, so the position only matters until the first drag frame.
var spawnPos = geometry.Vec3{X: 0, Y: 0, Z: 0}

// ReleaseResult reports where a piece actually landed. Adjusted is set when
// the engine moved or reverted the piece instead of committing the requested
// transform; Reason then explains why.
type ReleaseResult struct {
	Piece    *domain.Piece `json:"piece"`
	Adjusted bool          `json:"adjusted"`
	Reason   Code          `json:"reason,omitempty"`
}

// DeleteResult lists the cascade alongside the root deletion.
type DeleteResult struct {
	Deleted         domain.PieceID   `json:"deleted"`
	DeletedAttached []domain.PieceID `json:"deletedAttachedPieces"`
}

// SpawnPiece creates a piece already held by the spawner (auto-grab). Held
// pieces never enter the occupancy index.
func (r *Room) SpawnPiece(t domain.PieceType, uid domain.UserID) (*domain.Piece, *Error) {
	if !domain.ValidPieceType(t) {
		return nil, fail(CodeInvalidPieceType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return nil, fail(CodeUserNotFound)
	}
	if len(r.pieces) >= r.cfg.MaxPieces {
		return nil, fail(CodePieceLimitReached)
	}

	p := &domain.Piece{
		ID:        domain.NewPieceID(),
		Type:      t,
		Pos:       spawnPos,
		HeldBy:    uid,
		SpawnedBy: uid,
		Version:   1,
	}
	r.pieces[p.ID] = p
	r.heldPrev[p.ID] = transform{Pos: p.Pos, Yaw: p.Yaw}
	r.pushUndoLocked(uid, undoRecord{Kind: undoSpawn, PieceID: p.ID})
	r.markDirty()
	r.broadcastLocked(pieceEvent(EvPieceSpawned, p))
	return p.Clone(), nil
}

// GrabPiece takes the holder lock. First grab wins; a piece already held
// reports the current holder and mutates nothing.
func (r *Room) GrabPiece(id domain.PieceID, uid domain.UserID) (*domain.Piece, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return nil, fail(CodeUserNotFound)
	}
	p, ok := r.pieces[id]
	if !ok {
		return nil, fail(CodePieceNotFound)
	}
	if p.Held() {
		return nil, failDetail(CodeLockDenied, map[string]any{"heldBy": p.HeldBy})
	}

	p.HeldBy = uid
	p.Version++
	r.heldPrev[id] = transform{Pos: p.Pos, Yaw: p.Yaw, AttachedTo: p.AttachedTo, Normal: p.Normal}
	if p.AttachedTo == "" {
		delete(r.occupancy, geometry.CellOf(p.Pos, r.cfg.CellSize))
	}
	r.markDirty()
	r.broadcastExceptLocked(uid, pieceEvent(EvPieceGrabbed, p))
	return p.Clone(), nil
}

// ReleasePiece finalizes a drag. Out-of-bounds targets revert to the last
// valid transform; in-bounds ground targets resolve through the occupancy
// ring search; attached targets commit directly and skip the grid.
func (r *Room) ReleasePiece(id domain.PieceID, uid domain.UserID, pos geometry.Vec3, yaw float64, attachedTo domain.AttachmentID, normal *geometry.Vec3) (ReleaseResult, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pieces[id]
	if !ok {
		return ReleaseResult{}, fail(CodePieceNotFound)
	}
	if p.HeldBy != uid {
		return ReleaseResult{}, fail(CodeNotHolding)
	}

	if !pos.Finite() || !r.cfg.Bounds.Contains(pos) {
		return r.revertReleaseLocked(p, CodeOutOfBounds), nil
	}

	prev := r.heldPrev[id]

	if attachedTo != "" && r.attachTargetExistsLocked(attachedTo) {
		p.Pos = pos
		p.Yaw = yaw
		p.AttachedTo = attachedTo
		p.Normal = normal
		r.commitReleaseLocked(p, uid, prev)
		return ReleaseResult{Piece: p.Clone()}, nil
	}

	target := geometry.CellOf(pos, r.cfg.CellSize)
	cell, found := geometry.RingScan(target, r.cfg.SearchRadius, r.cellFreeLocked)
	if !found {
		return r.revertReleaseLocked(p, CodeNoValidPosition), nil
	}

	adjusted := cell != target
	p.Pos = pos
	if adjusted {
		center := geometry.CellCenter(cell, r.cfg.CellSize)
		p.Pos = geometry.Vec3{X: center.X, Y: pos.Y, Z: center.Z}
	}
	p.Yaw = yaw
	p.AttachedTo = ""
	p.Normal = nil
	r.occupancy[cell] = p.ID
	r.commitReleaseLocked(p, uid, prev)
	return ReleaseResult{Piece: p.Clone(), Adjusted: adjusted}, nil
}

// commitReleaseLocked finishes a successful placement: the holder lock
// drops, the pre-grab transform becomes the MOVE undo record, and the final
// transform always broadcasts regardless of the throttle.
func (r *Room) commitReleaseLocked(p *domain.Piece, uid domain.UserID, prev transform) {
	p.HeldBy = ""
	p.Version++
	delete(r.heldPrev, p.ID)
	r.pushUndoLocked(uid, undoRecord{Kind: undoMove, PieceID: p.ID, Prev: prev})
	r.markDirty()
	r.throttle.Force("piece:" + string(p.ID))
	r.broadcastLocked(pieceEvent(EvPieceReleased, p))
}

// revertReleaseLocked returns the piece to its last valid transform with the
// attachment cleared. No undo record: nothing the user did stuck.
func (r *Room) revertReleaseLocked(p *domain.Piece, reason Code) ReleaseResult {
	prev := r.heldPrev[p.ID]
	p.Pos = prev.Pos
	p.Yaw = prev.Yaw
	p.AttachedTo = ""
	p.Normal = nil
	p.HeldBy = ""
	p.Version++
	delete(r.heldPrev, p.ID)
	r.placeLocked(p)
	r.markDirty()
	r.throttle.Force("piece:" + string(p.ID))
	r.broadcastLocked(pieceEvent(EvPieceReleased, p))
	return ReleaseResult{Piece: p.Clone(), Adjusted: true, Reason: reason}
}

// UpdateTransform is the live-drag preview path: holder only, no bounds or
// occupancy checks, fan-out throttled per piece.
func (r *Room) UpdateTransform(id domain.PieceID, uid domain.UserID, pos geometry.Vec3, yaw float64) *Error {
	if !pos.Finite() {
		return fail(CodeOutOfBounds)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pieces[id]
	if !ok {
		return fail(CodePieceNotFound)
	}
	if p.HeldBy != uid {
		return fail(CodeNotHolding)
	}
	p.Pos = pos
	p.Yaw = yaw
	p.Version++
	if r.throttle.Allow("piece:" + string(id)) {
		r.broadcastExceptLocked(uid, pieceEvent(EvPieceMoved, p))
	}
	return nil
}

// DeletePiece removes a piece and everything attached to it, transitively.
// Only the spawner may delete; every cascaded entity broadcasts its own
// deletion event.
func (r *Room) DeletePiece(id domain.PieceID, uid domain.UserID) (DeleteResult, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pieces[id]
	if !ok {
		return DeleteResult{}, fail(CodePieceNotFound)
	}
	if p.SpawnedBy != uid {
		return DeleteResult{}, fail(CodeNotOwner)
	}

	saved := p.Clone()
	cascade := r.attachedClosureLocked(id)
	r.deletePieceLocked(p)
	for _, cid := range cascade {
		if cp, ok := r.pieces[cid]; ok {
			r.deletePieceLocked(cp)
		}
	}
	r.pushUndoLocked(uid, undoRecord{Kind: undoDelete, Piece: saved})
	r.markDirty()
	return DeleteResult{Deleted: id, DeletedAttached: cascade}, nil
}

// attachedClosureLocked walks piece-to-piece attachments transitively from
// the given root, returning the ids that must cascade.
func (r *Room) attachedClosureLocked(root domain.PieceID) []domain.PieceID {
	doomed := map[domain.PieceID]bool{root: true}
	var out []domain.PieceID
	for {
		grew := false
		for pid, p := range r.pieces {
			if doomed[pid] {
				continue
			}
			if doomed[domain.PieceID(p.AttachedTo)] {
				doomed[pid] = true
				out = append(out, pid)
				grew = true
			}
		}
		if !grew {
			return out
		}
	}
}

func (r *Room) deletePieceLocked(p *domain.Piece) {
	if !p.Held() && p.AttachedTo == "" {
		delete(r.occupancy, geometry.CellOf(p.Pos, r.cfg.CellSize))
	}
	delete(r.heldPrev, p.ID)
	delete(r.pieces, p.ID)
	r.throttle.Forget("piece:" + string(p.ID))
	r.broadcastLocked(Event{Type: EvPieceDeleted, Data: map[string]any{"pieceId": p.ID}})
}

// ---- occupancy helpers ----

// cellFreeLocked is the ring-search acceptance test: inside world bounds and
// not claimed by any finalized piece.
func (r *Room) cellFreeLocked(c geometry.CellKey) bool {
	center := geometry.CellCenter(c, r.cfg.CellSize)
	if !r.cfg.Bounds.Contains(geometry.Vec3{X: center.X, Z: center.Z}) {
		return false
	}
	_, taken := r.occupancy[c]
	return !taken
}

// placeLocked reinstates a finalized piece into occupancy, ring-searching
// away from its cell if another piece claimed it mid-drag.
func (r *Room) placeLocked(p *domain.Piece) {
	if p.AttachedTo != "" {
		return
	}
	cell := geometry.CellOf(p.Pos, r.cfg.CellSize)
	if r.cellFreeLocked(cell) {
		r.occupancy[cell] = p.ID
		return
	}
	if free, ok := geometry.RingScan(cell, r.cfg.SearchRadius, r.cellFreeLocked); ok {
		center := geometry.CellCenter(free, r.cfg.CellSize)
		p.Pos = geometry.Vec3{X: center.X, Y: p.Pos.Y, Z: center.Z}
		r.occupancy[free] = p.ID
	}
}

func (r *Room) attachTargetExistsLocked(a domain.AttachmentID) bool {
	if a.IsRoof() {
		return true
	}
	if _, ok := r.walls[domain.WallID(a)]; ok {
		return true
	}
	if _, ok := r.pieces[domain.PieceID(a)]; ok {
		return true
	}
	return false
}

// ---- read accessors (tests, transport) ----

func (r *Room) Piece(id domain.PieceID) (*domain.Piece, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pieces[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (r *Room) PieceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pieces)
}

// OccupiedCells returns a copy of the occupancy index.
func (r *Room) OccupiedCells() map[geometry.CellKey]domain.PieceID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[geometry.CellKey]domain.PieceID, len(r.occupancy))
	for k, v := range r.occupancy {
		out[k] = v
	}
	return out
}

// RebuildOccupancy recomputes the index from piece positions. The index is
// derived state; this is the reference the live index must always match.
func (r *Room) RebuildOccupancy() map[geometry.CellKey]domain.PieceID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildOccupancyLocked()
}

func (r *Room) rebuildOccupancyLocked() map[geometry.CellKey]domain.PieceID {
	out := make(map[geometry.CellKey]domain.PieceID)
	for id, p := range r.pieces {
		if p.Held() || p.AttachedTo != "" {
			continue
		}
		out[geometry.CellOf(p.Pos, r.cfg.CellSize)] = id
	}
	return out
}

// fenceTypeAt reports the unheld fence piece occupying a cell, if any, so
// fence rasterization can reuse it.
func (r *Room) fenceTypeAt(c geometry.CellKey) (domain.PieceID, domain.PieceType, bool) {
	pid, ok := r.occupancy[c]
	if !ok {
		return "", "", false
	}
	p := r.pieces[pid]
	if p == nil {
		return "", "", false
	}
	return pid, p.Type, true
}
