package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/app"
	"github.com/ovenbird/gingerhaus/internal/limiter"
	"github.com/ovenbird/gingerhaus/internal/room"
)

// Controller owns the websocket endpoint. One limiter per connection; the
// client token set by the HTTP layer doubles as the connection identity.
type Controller struct {
	manager *app.Manager
	limits  map[limiter.OpClass]limiter.Limit
	log     zerolog.Logger
}

func NewController(m *app.Manager, limits map[limiter.OpClass]limiter.Limit, log zerolog.Logger) *Controller {
	return &Controller{
		manager: m,
		limits:  limits,
		log:     log.With().Str("module", "transport.ws").Logger(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) Handle(c *gin.Context) {
	connID := app.ConnID(c.GetString("client_token"))

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	ctl.log.Debug().Str("conn", string(connID)).Msg("ws connected")

	conn := newWSConn(socket)
	lim := limiter.New(ctl.limits, nil)

	go conn.writePump(ctl.log)
	ctl.readPump(connID, conn, lim)
}

func (ctl *Controller) readPump(id app.ConnID, c *wsConn, lim *limiter.Limiter) {
	defer func() {
		ctl.manager.Disconnect(id)
		c.Close()
		ctl.log.Debug().Str("conn", string(id)).Msg("ws closed")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		ctl.dispatch(id, c, lim, data)
	}
}

func (ctl *Controller) dispatch(id app.ConnID, c *wsConn, lim *limiter.Limiter, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.log.Debug().Err(err).Msg("bad frame")
		return
	}

	class, known := opClassOf[env.Type]
	if !known {
		ctl.log.Debug().Str("type", env.Type).Msg("unknown intent")
		return
	}
	if !lim.Allow(class) {
		if !fireAndForget[env.Type] {
			ctl.sendErr(c, env.Type, &room.Error{Code: room.CodeRateLimited})
		}
		return
	}

	if env.Type == intentJoinRoom {
		ctl.handleJoin(id, c, env.Payload)
		return
	}

	r, uid, rerr := ctl.manager.Resolve(id)
	if rerr != nil {
		if !fireAndForget[env.Type] {
			ctl.sendErr(c, env.Type, rerr)
		}
		return
	}

	switch env.Type {
	case intentSpawnPiece:
		var p spawnPiecePayload
		if !ctl.decode(c, env, &p) {
			return
		}
		piece, rerr := r.SpawnPiece(p.PieceType, uid)
		ctl.reply(c, env.Type, piece, rerr)
	case intentGrabPiece:
		var p grabPiecePayload
		if !ctl.decode(c, env, &p) {
			return
		}
		piece, rerr := r.GrabPiece(p.PieceID, uid)
		ctl.reply(c, env.Type, piece, rerr)
	case intentRelease:
		var p releasePiecePayload
		if !ctl.decode(c, env, &p) {
			return
		}
		res, rerr := r.ReleasePiece(p.PieceID, uid, p.Pos, p.Yaw, p.AttachedTo, p.Normal)
		ctl.reply(c, env.Type, res, rerr)
	case intentTransform:
		var p transformPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		// best-effort: failures are dropped, the next release reconciles
		_ = r.UpdateTransform(p.PieceID, uid, p.Pos, p.Yaw)
	case intentDeletePiece:
		var p deletePiecePayload
		if !ctl.decode(c, env, &p) {
			return
		}
		res, rerr := r.DeletePiece(p.PieceID, uid)
		ctl.reply(c, env.Type, res, rerr)
	case intentCreateWall:
		var p createWallPayload
		if !ctl.decode(c, env, &p) {
			return
		}
		wall, rerr := r.CreateWall(p.Start, p.End, p.Height, p.Thickness, uid)
		ctl.reply(c, env.Type, wall, rerr)
	case intentDeleteWall:
		var p deleteWallPayload
		if !ctl.decode(c, env, &p) {
			return
		}
		res, rerr := r.DeleteWall(p.WallID, uid)
		ctl.reply(c, env.Type, res, rerr)
	case intentFenceLine:
		var p fenceLinePayload
		if !ctl.decode(c, env, &p) {
			return
		}
		res, rerr := r.CreateFenceLine(p.Start, p.End, p.Spacing, uid)
		ctl.reply(c, env.Type, res, rerr)
	case intentCreateIcing:
		var p createIcingPayload
		if !ctl.decode(c, env, &p) {
			return
		}
		stroke, rerr := r.CreateIcingStroke(p.Points, p.Radius, p.Surface, p.SurfaceID, uid)
		ctl.reply(c, env.Type, stroke, rerr)
	case intentDeleteIcing:
		var p deleteIcingPayload
		if !ctl.decode(c, env, &p) {
			return
		}
		if rerr := r.DeleteIcingStroke(p.IcingID, uid); rerr != nil {
			ctl.sendErr(c, env.Type, rerr)
			return
		}
		ctl.sendOK(c, env.Type, nil)
	case intentChat:
		var p chatPayload
		if !ctl.decode(c, env, &p) {
			return
		}
		msg, rerr := r.SendChat(uid, p.Text)
		ctl.reply(c, env.Type, msg, rerr)
	case intentCursor:
		var p cursorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		_ = r.UpdateCursor(uid, p.Pos)
	case intentUndo:
		res, rerr := r.Undo(uid)
		ctl.reply(c, env.Type, res, rerr)
	case intentReset:
		if rerr := r.ResetRoom(uid); rerr != nil {
			ctl.sendErr(c, env.Type, rerr)
			return
		}
		ctl.sendOK(c, env.Type, nil)
	}
}

func (ctl *Controller) handleJoin(id app.ConnID, c *wsConn, raw json.RawMessage) {
	var p joinRoomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		ctl.sendErr(c, intentJoinRoom, &room.Error{Code: room.CodeInvalidRoomCode})
		return
	}

	res, rerr := ctl.manager.JoinRoom(id, p.RoomCode, p.Name, p.PreviousUserID, c)
	if rerr != nil {
		ctl.sendErr(c, intentJoinRoom, rerr)
		return
	}
	ctl.log.Info().
		Str("conn", string(id)).
		Str("room", string(p.RoomCode)).
		Str("user", string(res.User.ID)).
		Bool("reconnect", res.IsReconnect).
		Msg("user joined")
	ctl.sendOK(c, intentJoinRoom, res)
}

func (ctl *Controller) decode(c *wsConn, env envelope, dst any) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		ctl.log.Debug().Err(err).Str("type", env.Type).Msg("bad payload")
		ctl.sendErr(c, env.Type, invalidPayloadErr(env.Type))
		return false
	}
	return true
}

// invalidPayloadErr picks the engine's validation code matching the intent so
// an undecodable payload and an invalid one look the same to clients.
func invalidPayloadErr(intent string) *room.Error {
	switch intent {
	case intentSpawnPiece:
		return &room.Error{Code: room.CodeInvalidPieceType}
	case intentCreateWall:
		return &room.Error{Code: room.CodeInvalidWallData}
	case intentFenceLine:
		return &room.Error{Code: room.CodeInvalidFenceData}
	case intentCreateIcing:
		return &room.Error{Code: room.CodeInvalidIcingData}
	case intentChat:
		return &room.Error{Code: room.CodeInvalidChat}
	default:
		return &room.Error{Code: room.CodePieceNotFound}
	}
}

// reply sends either the op result or its error, whichever is non-nil.
func (ctl *Controller) reply(c *wsConn, intent string, data any, rerr *room.Error) {
	if rerr != nil {
		ctl.sendErr(c, intent, rerr)
		return
	}
	ctl.sendOK(c, intent, data)
}

func (ctl *Controller) sendOK(c *wsConn, intent string, data any) {
	ctl.sendJSON(c, result{Type: "result", Of: intent, OK: true, Data: data})
}

func (ctl *Controller) sendErr(c *wsConn, intent string, rerr *room.Error) {
	ctl.sendJSON(c, result{Type: "result", Of: intent, OK: false, Error: string(rerr.Code), Detail: rerr.Detail})
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctl.log.Error().Err(err).Msg("marshal result")
		return
	}
	if err := c.enqueue(b); err != nil {
		ctl.log.Debug().Err(err).Msg("result dropped")
	}
}
