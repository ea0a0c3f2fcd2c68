package room

import (
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
)

// WallDeleteResult enumerates everything a wall removal took with it.
type WallDeleteResult struct {
	Deleted       domain.WallID    `json:"deleted"`
	DeletedPieces []domain.PieceID `json:"deletedPieces"`
	DeletedIcing  []domain.IcingID `json:"deletedIcing"`
}

func (r *Room) CreateWall(start, end geometry.Vec2, height, thickness float64, uid domain.UserID) (*domain.Wall, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return nil, fail(CodeUserNotFound)
	}
	w, err := domain.NewWall(start, end, height, thickness, uid)
	if err != nil {
		return nil, fail(CodeInvalidWallData)
	}
	r.walls[w.ID] = w
	r.pushUndoLocked(uid, undoRecord{Kind: undoCreateWall, WallID: w.ID})
	r.markDirty()
	r.broadcastLocked(Event{Type: EvWallCreated, Data: w.Clone()})
	return w.Clone(), nil
}

// DeleteWall removes a wall (creator only) and cascades: pieces attached
// directly to it, icing piped onto it, and — recomputed from the remaining
// wall graph — every roof-anchored piece or stroke whose anchor no longer
// lies under any surviving roof polygon.
func (r *Room) DeleteWall(id domain.WallID, uid domain.UserID) (WallDeleteResult, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.walls[id]
	if !ok {
		return WallDeleteResult{}, fail(CodeWallNotFound)
	}
	if w.CreatedBy != uid {
		return WallDeleteResult{}, fail(CodeNotOwner)
	}

	saved := w.Clone()
	res := r.deleteWallCascadeLocked(w)
	r.pushUndoLocked(uid, undoRecord{Kind: undoDeleteWall, Wall: saved})
	r.markDirty()
	return res, nil
}

// deleteWallCascadeLocked removes the wall, then sweeps everything whose
// anchor it invalidated: directly attached pieces and icing, plus
// roof-anchored entities left without a surviving polygon.
func (r *Room) deleteWallCascadeLocked(w *domain.Wall) WallDeleteResult {
	id := w.ID
	delete(r.walls, id)
	r.broadcastLocked(Event{Type: EvWallDeleted, Data: map[string]any{"wallId": id}})

	res := WallDeleteResult{Deleted: id}
	remaining := r.roofsLocked()

	doomed := make(map[domain.PieceID]bool)
	for pid, p := range r.pieces {
		if !r.pieceAnchorValidLocked(p, id, remaining) {
			doomed[pid] = true
			for _, cid := range r.attachedClosureLocked(pid) {
				doomed[cid] = true
			}
		}
	}
	for pid := range doomed {
		if cp, ok := r.pieces[pid]; ok {
			r.deletePieceLocked(cp)
			res.DeletedPieces = append(res.DeletedPieces, pid)
		}
	}
	for sid, s := range r.icing {
		if !r.icingAnchorValidLocked(s, id, remaining) {
			delete(r.icing, sid)
			res.DeletedIcing = append(res.DeletedIcing, sid)
			r.broadcastLocked(Event{Type: EvIcingDeleted, Data: map[string]any{"icingId": sid}})
		}
	}
	return res
}

// pieceAnchorValidLocked decides survival after the given wall went away.
func (r *Room) pieceAnchorValidLocked(p *domain.Piece, removed domain.WallID, roofs []geometry.Polygon) bool {
	switch {
	case p.AttachedTo == "":
		return true
	case domain.WallID(p.AttachedTo) == removed:
		return false
	case p.AttachedTo.IsRoof():
		return underAnyRoof(p.Pos.XZ(), roofs, r.cfg.RoofOverhang)
	}
	return true
}

func (r *Room) icingAnchorValidLocked(s *domain.IcingStroke, removed domain.WallID, roofs []geometry.Polygon) bool {
	switch s.Surface {
	case domain.SurfaceWall:
		return domain.WallID(s.SurfaceID) != removed
	case domain.SurfaceRoof:
		return underAnyRoof(s.Points[0].XZ(), roofs, r.cfg.RoofOverhang)
	}
	return true
}

func underAnyRoof(pt geometry.Vec2, roofs []geometry.Polygon, overhang float64) bool {
	for _, roof := range roofs {
		if geometry.PointInRoof(roof, pt, overhang) {
			return true
		}
	}
	return false
}

// roofsLocked recomputes the closed wall loops on demand; derived geometry
// is never cached.
func (r *Room) roofsLocked() []geometry.Polygon {
	segs := make([]geometry.Segment, 0, len(r.walls))
	for _, w := range r.walls {
		segs = append(segs, w.Segment())
	}
	return geometry.SolveRoofs(segs, r.cfg.RoofEpsilon, r.cfg.RoofMaxCycle)
}

// Roofs exposes the current roof polygons to transport and tests.
func (r *Room) Roofs() []geometry.Polygon {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roofsLocked()
}

func (r *Room) Wall(id domain.WallID) (*domain.Wall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.walls[id]
	if !ok {
		return nil, false
	}
	return w.Clone(), true
}

func (r *Room) WallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.walls)
}
