package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/goal"
)

type invalidInputBody struct {
	Error  string        `json:"error"`
	Issues agents.Issues `json:"issues"`
}

// agentHandler decodes a JSON body into In, runs fn and writes its result.
func agentHandler[In any, Out any](fn func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if !decodeBody(w, r, &in) {
			return
		}
		out, err := fn(r.Context(), in)
		if err != nil {
			writeAgentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleIntake(svc *agents.Service) http.HandlerFunc {
	return agentHandler(svc.Intake)
}

func handlePlanner(svc *agents.Service) http.HandlerFunc {
	return agentHandler(svc.Plan)
}

func handleAccountability(svc *agents.Service) http.HandlerFunc {
	return agentHandler(svc.CheckIn)
}

func handleReflection(svc *agents.Service) http.HandlerFunc {
	return agentHandler(svc.Reflect)
}

func handleUpdateGoal(svc *agents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in agents.GoalUpdateInput
		if !decodeBody(w, r, &in) {
			return
		}
		if err := svc.UpdateGoal(r.Context(), in); err != nil {
			writeAgentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func handleGetGoal(svc *agents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Goal(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeAgentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleLatestGoal(svc *agents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.LatestGoal(r.Context())
		if err != nil {
			writeAgentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		httpError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}
	if err := agents.DecodeInput(raw, dst); err != nil {
		writeAgentError(w, err)
		return false
	}
	return true
}

func writeAgentError(w http.ResponseWriter, err error) {
	var verr *agents.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, invalidInputBody{Error: "Invalid input", Issues: verr.Issues})
	case errors.Is(err, goal.ErrNotFound):
		httpError(w, http.StatusNotFound, "Goal not found")
	default:
		slog.Error("goal agent failed", "error", err)
		httpError(w, http.StatusInternalServerError, "%s", err.Error())
	}
}
