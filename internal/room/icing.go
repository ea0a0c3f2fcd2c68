package room

import (
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/geometry"
)

func (r *Room) CreateIcingStroke(points []geometry.Vec3, radius float64, surface domain.SurfaceType, surfaceID string, uid domain.UserID) (*domain.IcingStroke, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[uid]; !ok {
		return nil, fail(CodeUserNotFound)
	}
	s, err := domain.NewIcingStroke(points, radius, surface, surfaceID, uid)
	if err != nil {
		return nil, fail(CodeInvalidIcingData)
	}
	r.icing[s.ID] = s
	r.pushUndoLocked(uid, undoRecord{Kind: undoCreateIcing, IcingID: s.ID})
	r.markDirty()
	r.broadcastLocked(Event{Type: EvIcingCreated, Data: s.Clone()})
	return s.Clone(), nil
}

func (r *Room) DeleteIcingStroke(id domain.IcingID, uid domain.UserID) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.icing[id]
	if !ok {
		return fail(CodeIcingNotFound)
	}
	if s.CreatedBy != uid {
		return fail(CodeNotOwner)
	}
	delete(r.icing, id)
	r.pushUndoLocked(uid, undoRecord{Kind: undoDeleteIcing, Icing: s})
	r.markDirty()
	r.broadcastLocked(Event{Type: EvIcingDeleted, Data: map[string]any{"icingId": id}})
	return nil
}

func (r *Room) Icing(id domain.IcingID) (*domain.IcingStroke, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.icing[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (r *Room) IcingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.icing)
}
