package room

import (
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
)

// undoKind tags a reversible action record. The string values are the action
// names clients see in undo responses.
type undoKind string

const (
	undoSpawn       undoKind = "SPAWN"
	undoDelete      undoKind = "DELETE"
	undoMove        undoKind = "MOVE"
	undoCreateWall  undoKind = "CREATE_WALL"
	undoDeleteWall  undoKind = "DELETE_WALL"
	undoCreateFence undoKind = "CREATE_FENCE_LINE"
	undoCreateIcing undoKind = "CREATE_ICING"
	undoDeleteIcing undoKind = "DELETE_ICING"
)

// undoRecord captures just enough to structurally invert one action. Records
// reference prior state loosely: if another user has since deleted the
// target, applying the record is a legitimate no-op, never an error.
type undoRecord struct {
	Kind        undoKind
	PieceID     domain.PieceID
	Prev        transform
	Piece       *domain.Piece
	WallID      domain.WallID
	Wall        *domain.Wall
	IcingID     domain.IcingID
	Icing       *domain.IcingStroke
	FencePieces []domain.PieceID
}

type UndoResult struct {
	Action    string `json:"action"`
	Remaining int    `json:"remainingCount"`
}

func (r *Room) pushUndoLocked(uid domain.UserID, rec undoRecord) {
	stack := append(r.undo[uid], rec)
	if len(stack) > r.cfg.UndoDepth {
		stack = stack[len(stack)-r.cfg.UndoDepth:]
	}
	r.undo[uid] = stack
}

// Undo pops the user's most recent record and applies its structural
// inverse. The only failure besides an empty stack is restoring a deleted
// piece into a full room.
func (r *Room) Undo(uid domain.UserID) (UndoResult, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return UndoResult{}, fail(CodeUserNotFound)
	}
	stack := r.undo[uid]
	if len(stack) == 0 {
		return UndoResult{}, fail(CodeNothingToUndo)
	}
	rec := stack[len(stack)-1]

	// Restoring a deleted piece re-enters the piece cap; the record stays
	// on the stack so the user can retry after clearing space.
	if rec.Kind == undoDelete && len(r.pieces) >= r.cfg.MaxPieces {
		return UndoResult{}, fail(CodePieceLimitReached)
	}

	r.undo[uid] = stack[:len(stack)-1]
	r.applyUndoLocked(uid, rec)
	r.markDirty()
	return UndoResult{Action: string(rec.Kind), Remaining: len(r.undo[uid])}, nil
}

func (r *Room) applyUndoLocked(uid domain.UserID, rec undoRecord) {
	switch rec.Kind {
	case undoSpawn:
		p, ok := r.pieces[rec.PieceID]
		if !ok || (p.Held() && p.HeldBy != uid) {
			return
		}
		for _, cid := range r.attachedClosureLocked(rec.PieceID) {
			if cp, ok := r.pieces[cid]; ok {
				r.deletePieceLocked(cp)
			}
		}
		r.deletePieceLocked(p)

	case undoDelete:
		if _, ok := r.pieces[rec.Piece.ID]; ok {
			return
		}
		p := rec.Piece.Clone()
		p.HeldBy = ""
		if p.AttachedTo != "" && !r.attachTargetExistsLocked(p.AttachedTo) {
			p.AttachedTo = ""
			p.Normal = nil
		}
		r.pieces[p.ID] = p
		r.placeLocked(p)
		r.broadcastLocked(pieceEvent(EvPieceSpawned, p))

	case undoMove:
		p, ok := r.pieces[rec.PieceID]
		if !ok || p.Held() {
			return
		}
		if p.AttachedTo == "" {
			delete(r.occupancy, geometry.CellOf(p.Pos, r.cfg.CellSize))
		}
		p.Pos = rec.Prev.Pos
		p.Yaw = rec.Prev.Yaw
		p.AttachedTo = rec.Prev.AttachedTo
		p.Normal = rec.Prev.Normal
		if p.AttachedTo != "" && !r.attachTargetExistsLocked(p.AttachedTo) {
			p.AttachedTo = ""
			p.Normal = nil
		}
		p.Version++
		r.placeLocked(p)
		r.throttle.Force("piece:" + string(p.ID))
		r.broadcastLocked(pieceEvent(EvPieceMoved, p))

	case undoCreateWall:
		if w, ok := r.walls[rec.WallID]; ok {
			r.deleteWallCascadeLocked(w)
		}

	case undoDeleteWall:
		if _, ok := r.walls[rec.Wall.ID]; ok {
			return
		}
		w := rec.Wall.Clone()
		r.walls[w.ID] = w
		r.broadcastLocked(Event{Type: EvWallCreated, Data: w.Clone()})

	case undoCreateFence:
		for _, pid := range rec.FencePieces {
			p, ok := r.pieces[pid]
			if !ok || p.Held() {
				continue
			}
			r.deletePieceLocked(p)
		}

	case undoCreateIcing:
		if _, ok := r.icing[rec.IcingID]; ok {
			delete(r.icing, rec.IcingID)
			r.broadcastLocked(Event{Type: EvIcingDeleted, Data: map[string]any{"icingId": rec.IcingID}})
		}

	case undoDeleteIcing:
		if _, ok := r.icing[rec.Icing.ID]; ok {
			return
		}
		s := rec.Icing.Clone()
		r.icing[s.ID] = s
		r.broadcastLocked(Event{Type: EvIcingCreated, Data: s.Clone()})
	}
}

// UndoDepth reports the user's current stack size.
func (r *Room) UndoDepth(uid domain.UserID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.undo[uid])
}
