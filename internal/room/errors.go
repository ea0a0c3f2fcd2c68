package room

// Code is a flat string error code surfaced to clients as-is. Codes travel
// alongside structured results, never as panics or wrapped chains across the
// intent boundary.
type Code string

const (
	// authorization
	CodeNotOwner   Code = "NOT_OWNER"
	CodeNotHolding Code = "NOT_HOLDING"
	CodeNotHost    Code = "NOT_HOST"
	CodeLockDenied Code = "LOCK_DENIED"

	// capacity
	CodeRoomFull          Code = "ROOM_FULL"
	CodePieceLimitReached Code = "PIECE_LIMIT_REACHED"
	CodeRateLimited       Code = "RATE_LIMITED"

	// validation
	CodeInvalidRoomCode  Code = "INVALID_ROOM_CODE"
	CodeInvalidPieceType Code = "INVALID_PIECE_TYPE"
	CodeInvalidWallData  Code = "INVALID_WALL_DATA"
	CodeInvalidIcingData Code = "INVALID_ICING_DATA"
	CodeInvalidName      Code = "INVALID_NAME"
	CodeInvalidChat      Code = "INVALID_CHAT"
	CodeInvalidFenceData Code = "INVALID_FENCE_DATA"

	// placement
	CodeOutOfBounds     Code = "OUT_OF_BOUNDS"
	CodeNoValidPosition Code = "NO_VALID_POSITION"
	CodeCellOccupied    Code = "CELL_OCCUPIED"

	// lookup
	CodeRoomNotFound  Code = "ROOM_NOT_FOUND"
	CodePieceNotFound Code = "PIECE_NOT_FOUND"
	CodeWallNotFound  Code = "WALL_NOT_FOUND"
	CodeIcingNotFound Code = "ICING_NOT_FOUND"
	CodeUserNotFound  Code = "USER_NOT_FOUND"
	CodeNotInRoom     Code = "NOT_IN_ROOM"

	// undo
	CodeNothingToUndo Code = "NOTHING_TO_UNDO"
)

// Error carries a code plus optional context (e.g. the current holder on a
// denied grab).
type Error struct {
	Code   Code           `json:"code"`
	Detail map[string]any `json:"detail,omitempty"`
}

func (e *Error) Error() string { return string(e.Code) }

func fail(code Code) *Error { return &Error{Code: code} }

func failDetail(code Code, detail map[string]any) *Error {
	return &Error{Code: code, Detail: detail}
}
