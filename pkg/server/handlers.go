package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/agentd/pkg/llms"
	"github.com/fitdesk/agentd/pkg/orchestrator"
	"github.com/fitdesk/agentd/pkg/store"
)

const (
	actionGenerateReply = "generate_reply"
	actionIndexDocument = "index_document"
)

type invokeRequest struct {
	Action  string        `json:"action"`
	AgentID string        `json:"agent_id"`
	Payload invokePayload `json:"payload"`
}

type invokePayload struct {
	// generate_reply fields.
	TicketID string        `json:"ticket_id,omitempty"`
	Messages []wireMessage `json:"messages,omitempty"`

	// index_document fields.
	DocumentID string                 `json:"document_id,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.AgentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "agent_id is required"})
		return
	}

	switch req.Action {
	case actionGenerateReply:
		s.generateReply(w, r, &req)
	case actionIndexDocument:
		s.indexDocument(w, r, &req)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported action: " + req.Action})
	}
}

func (s *Server) generateReply(w http.ResponseWriter, r *http.Request, req *invokeRequest) {
	if req.Payload.TicketID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload.ticket_id is required"})
		return
	}

	seed := make([]llms.Message, 0, len(req.Payload.Messages))
	for _, m := range req.Payload.Messages {
		seed = append(seed, llms.Message{Role: m.Role, Content: m.Content})
	}

	result, err := s.orch.Invoke(r.Context(), &orchestrator.Request{
		AgentID:    req.AgentID,
		TicketID:   req.Payload.TicketID,
		Messages:   seed,
		ReceivedAt: time.Now().UTC(),
	})
	if errors.Is(err, orchestrator.ErrSuperseded) {
		// The invocation stayed silent on purpose; a newer one answers.
		writeJSON(w, http.StatusOK, &orchestrator.Result{})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		slog.Error("Invocation failed", "agent", req.AgentID, "ticket", req.Payload.TicketID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) indexDocument(w http.ResponseWriter, r *http.Request, req *invokeRequest) {
	if s.retriever == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "knowledge retrieval is not configured"})
		return
	}
	if req.Payload.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload.content is required"})
		return
	}
	docID := req.Payload.DocumentID
	if docID == "" {
		docID = uuid.NewString()
	}

	if err := s.retriever.Upsert(r.Context(), req.AgentID, docID, req.Payload.Content, req.Payload.Metadata); err != nil {
		slog.Error("Document indexing failed", "agent", req.AgentID, "document", docID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"document_id": docID})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
