package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raglet/raglet/internal/answer"
	"github.com/raglet/raglet/internal/fetch"
	"github.com/raglet/raglet/internal/log"
)

// maxRunBodyBytes caps the request body; document and question lists are
// small, the documents themselves arrive by URL.
const maxRunBodyBytes = 1 << 20

// RunRequest is the body of POST /api/v1/run.
type RunRequest struct {
	Documents []string `json:"documents"`
	Questions []string `json:"questions"`
}

// RunResponse is the reply: one answer per question, in question order.
type RunResponse struct {
	Answers []answer.Answer `json:"answers"`
}

type runHandler struct {
	runner Runner
	logger log.Logger
}

func (h *runHandler) handle(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "documents must not be empty")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "questions must not be empty")
		return
	}

	answers, err := h.runner.Run(r.Context(), req.Documents, req.Questions)
	if err != nil {
		h.logger.Error("pipeline run failed",
			"error", err,
			"request_id", RequestID(r.Context()))
		if errors.Is(err, fetch.ErrUnavailable) {
			writeError(w, http.StatusBadGateway, "document_unavailable", err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "ingest_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Answers: answers})
}
