package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// logWriteWait bounds how long a single websocket write may take.
	logWriteWait = 10 * time.Second

	// logPollWait bounds how long we block waiting for new log output
	// before checking whether the client has gone away.
	logPollWait = 30 * time.Second
)

var logUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API key check already ran in the middleware chain.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamLogs handles GET /v1/runs/{runId}/logs - streams container output
// over a websocket. Output accumulated so far is sent first, then new
// output as it arrives. The connection closes once the run finishes.
func (h *Handler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")
	if runID == "" {
		h.writeError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	logs, err := h.svc.Logs(r.Context(), runID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	conn, err := logUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		slog.Warn("Websocket upgrade failed", "error", err, "runId", runID)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	offset := 0
	for {
		chunk, closed := logs.Snapshot(offset)
		if len(chunk) > 0 {
			conn.SetWriteDeadline(time.Now().Add(logWriteWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				return
			}
			offset += len(chunk)
		}
		if closed {
			break
		}

		waitCtx, cancel := context.WithTimeout(r.Context(), logPollWait)
		logs.Wait(waitCtx, offset)
		cancel()

		if r.Context().Err() != nil {
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(logWriteWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
}
