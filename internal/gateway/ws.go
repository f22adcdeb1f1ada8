// Package gateway manages websocket sessions and runs the per-message
// grasp pipeline: decode, filter, infer, post-process, encode, send.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/dimensionalOS/anygrasp-sdk/internal/engine"
	"github.com/dimensionalOS/anygrasp-sdk/internal/logx"
	"github.com/dimensionalOS/anygrasp-sdk/internal/serverstate"
)

// Point clouds arrive as one JSON text frame per request; a dense sensor
// frame runs to tens of megabytes.
const maxMessageBytes = 64 << 20

// WSHandler handles incoming client websocket sessions. Each session
// processes its messages strictly in order; sessions run concurrently
// with engine access arbitrated by the engine's admission gate.
func WSHandler(reg *Registry, eng engine.Engine, maxGrasps int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if serverstate.IsDraining() {
			http.Error(w, "draining", http.StatusServiceUnavailable)
			return
		}
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
		if err != nil {
			return
		}
		c.SetReadLimit(maxMessageBytes)
		ctx := r.Context()
		defer func() {
			_ = c.Close(websocket.StatusInternalError, "server error")
		}()

		sess := reg.Add(r.RemoteAddr)
		logx.Log.Info().Str("session_id", sess.ID).Str("remote_addr", sess.Remote).Msg("session opened")
		defer reg.Remove(sess.ID)

		go func() {
			for msg := range sess.Out() {
				b, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if err := c.Write(ctx, websocket.MessageText, b); err != nil {
					return
				}
			}
		}()

		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				var ce websocket.CloseError
				if errors.As(err, &ce) && ce.Code == websocket.StatusNormalClosure {
					logx.Log.Info().Str("session_id", sess.ID).Msg("session closed")
				} else {
					logx.Log.Info().Err(err).Str("session_id", sess.ID).Msg("session disconnected")
				}
				return
			}
			// One message runs to completion before the next read, so a
			// session never has two pipeline runs interleaved.
			resp := runPipeline(ctx, eng, maxGrasps, data)
			if err := sess.Send(resp); err != nil {
				// Session vanished mid-flight; the computed result is
				// dropped and other sessions are untouched.
				logx.Log.Debug().Str("session_id", sess.ID).Msg("result discarded for closed session")
				return
			}
		}
	}
}
