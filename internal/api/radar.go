package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/coach/internal/intent"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/price"
	"github.com/kalambet/coach/internal/radar"
)

const replyEmptyMessage = "Please provide a message for the agent."

// agentRequest accepts either free text or a pre-structured action.
type agentRequest struct {
	Message string          `json:"message"`
	Action  json.RawMessage `json:"action"`
}

func handleAgent(agent RadarAgent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req agentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, radar.Response{Reply: replyEmptyMessage})
			return
		}

		var (
			resp radar.Response
			err  error
		)
		switch {
		case len(req.Action) > 0 && string(req.Action) != "null":
			var ir intent.Request
			if ir, err = intent.Decode(req.Action); err == nil {
				resp, err = agent.Handle(r.Context(), ir)
			}
		case strings.TrimSpace(req.Message) != "":
			resp, err = agent.Ask(r.Context(), req.Message)
		default:
			writeJSON(w, http.StatusBadRequest, radar.Response{Reply: replyEmptyMessage})
			return
		}

		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, price.ErrUnsupportedSymbol) || errors.Is(err, intent.ErrInvalidInput) {
				code = http.StatusBadRequest
			} else {
				slog.Error("agent request failed", "error", err)
			}
			writeJSON(w, code, radar.Response{Reply: "Agent error: " + err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAlerts(alerts AlertReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("owner")
		if !ledger.ValidAddress(owner) {
			httpError(w, http.StatusBadRequest, "Provide a valid owner address.")
			return
		}

		list, err := alerts.AlertsByOwner(r.Context(), owner)
		if err != nil {
			slog.Error("listing alerts failed", "owner", owner, "error", err)
			httpError(w, http.StatusInternalServerError, "%s", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alerts": ledger.SerializeAll(list)})
	}
}
