package room

import (
	"math"

	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
)

// FenceLineResult reports the pieces a fence-line call materialized and the
// existing fence nodes it reused.
type FenceLineResult struct {
	Created []*domain.Piece  `json:"created"`
	Reused  []domain.PieceID `json:"reused"`
}

// CreateFenceLine rasterizes the segment onto a spacing-sized integer grid
// with a Bresenham walk and plants one fence piece per visited cell.
// Existing unheld fence pieces are reused, which makes the call idempotent;
// any other occupant is a hard conflict and the whole line is rejected —
// all-or-nothing, never a partial fence.
func (r *Room) CreateFenceLine(start, end geometry.Vec2, spacing float64, uid domain.UserID) (FenceLineResult, *Error) {
	if !start.Finite() || !end.Finite() || math.IsNaN(spacing) || spacing <= 0 {
		return FenceLineResult{}, fail(CodeInvalidFenceData)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return FenceLineResult{}, fail(CodeUserNotFound)
	}

	startCell := geometry.CellOf(geometry.Vec3{X: start.X, Z: start.Z}, spacing)
	endCell := geometry.CellOf(geometry.Vec3{X: end.X, Z: end.Z}, spacing)

	type plannedNode struct {
		pos  geometry.Vec3
		cell geometry.CellKey
	}

	// Plan first, commit only if every node is clean.
	var plan []plannedNode
	var reused []domain.PieceID
	planned := make(map[geometry.CellKey]bool)
	for _, fc := range geometry.LineCells(startCell, endCell) {
		center := geometry.CellCenter(fc, spacing)
		pos := geometry.Vec3{X: center.X, Z: center.Z}
		if !r.cfg.Bounds.Contains(pos) {
			return FenceLineResult{}, fail(CodeOutOfBounds)
		}
		cell := geometry.CellOf(pos, r.cfg.CellSize)
		if planned[cell] {
			continue // spacing finer than the occupancy grid; one node per cell
		}
		if pid, typ, occupied := r.fenceTypeAt(cell); occupied {
			if typ != domain.PieceWaferFence {
				return FenceLineResult{}, failDetail(CodeCellOccupied, map[string]any{"pieceId": pid})
			}
			reused = append(reused, pid)
			planned[cell] = true
			continue
		}
		planned[cell] = true
		plan = append(plan, plannedNode{pos: pos, cell: cell})
	}

	if len(r.pieces)+len(plan) > r.cfg.MaxPieces {
		return FenceLineResult{}, fail(CodePieceLimitReached)
	}

	res := FenceLineResult{Reused: reused}
	var createdIDs []domain.PieceID
	for _, node := range plan {
		p := &domain.Piece{
			ID:        domain.NewPieceID(),
			Type:      domain.PieceWaferFence,
			Pos:       node.pos,
			SpawnedBy: uid,
			Version:   1,
		}
		r.pieces[p.ID] = p
		r.occupancy[node.cell] = p.ID
		createdIDs = append(createdIDs, p.ID)
		res.Created = append(res.Created, p.Clone())
		r.broadcastLocked(pieceEvent(EvPieceSpawned, p))
	}

	if len(createdIDs) > 0 {
		r.pushUndoLocked(uid, undoRecord{Kind: undoCreateFence, FencePieces: createdIDs})
		r.markDirty()
	}
	return res, nil
}
