package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"orgtree/internal/store"

	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

type detailBody struct {
	Detail string `json:"detail"`
}

type messageBody struct {
	Message string `json:"message"`
}

type updateManagerRequest struct {
	EmployeeID *int64 `json:"employee_id"`
	ManagerID  *int64 `json:"manager_id"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root, err := s.store.Tree(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) handleSubtree(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("employeeId")), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: "employee_id must be an integer"})
		return
	}
	root, err := s.store.Subtree(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) handleUpdateManager(w http.ResponseWriter, r *http.Request) {
	var req updateManagerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: "invalid request body: " + err.Error()})
		return
	}
	if req.EmployeeID == nil {
		writeJSON(w, http.StatusUnprocessableEntity, detailBody{Detail: "employee_id is required"})
		return
	}

	msg, err := s.store.UpdateManager(r.Context(), *req.EmployeeID, req.ManagerID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	fields := []zap.Field{zap.Int64("employee_id", *req.EmployeeID), zap.String("request_id", requestID(r))}
	if req.ManagerID != nil {
		fields = append(fields, zap.Int64("manager_id", *req.ManagerID))
	}
	s.log.Info("manager updated", fields...)
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

// writeStoreError maps store rule violations to their status and detail.
// Anything else is logged and reported as a 500 without internals.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var se *store.Error
	if errors.As(err, &se) {
		writeJSON(w, se.Status, detailBody{Detail: se.Detail})
		return
	}
	s.log.Error("store failure",
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r)),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, detailBody{Detail: "Internal Server Error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
