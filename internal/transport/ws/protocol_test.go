package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/gingerhaus/internal/domain"
)

func TestEveryIntentHasAnOpClass(t *testing.T) {
	intents := []string{
		intentJoinRoom, intentSpawnPiece, intentGrabPiece, intentRelease,
		intentTransform, intentDeletePiece, intentCreateWall, intentDeleteWall,
		intentFenceLine, intentCreateIcing, intentDeleteIcing, intentChat,
		intentCursor, intentUndo, intentReset,
	}
	for _, in := range intents {
		_, ok := opClassOf[in]
		assert.True(t, ok, "intent %q has no rate class", in)
	}
	assert.Len(t, opClassOf, len(intents))
}

func TestFireAndForgetOnlyPreviewIntents(t *testing.T) {
	assert.True(t, fireAndForget[intentTransform])
	assert.True(t, fireAndForget[intentCursor])
	assert.Len(t, fireAndForget, 2)
}

func TestEnvelopeDecoding(t *testing.T) {
	raw := []byte(`{"type":"release_piece","payload":{"pieceId":"p1","pos":{"x":1,"y":2,"z":3},"yaw":0.5,"attachedTo":"roof:0"}}`)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, intentRelease, env.Type)

	var p releasePiecePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, domain.PieceID("p1"), p.PieceID)
	assert.Equal(t, 2.0, p.Pos.Y)
	assert.True(t, p.AttachedTo.IsRoof())
	assert.Nil(t, p.Normal)
}

func TestResultSerialization(t *testing.T) {
	b, err := json.Marshal(result{Type: "result", Of: intentChat, OK: false, Error: "RATE_LIMITED"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"result","of":"chat","ok":false,"error":"RATE_LIMITED"}`, string(b))
}
