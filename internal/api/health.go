package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	RPC      string `json:"rpc"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rpcStatus := "connected"
	if err := s.node.Ping(r.Context()); err != nil {
		rpcStatus = "disconnected"
	}

	dbStatus := "disabled"
	if s.history != nil {
		dbStatus = "connected"
		if err := s.history.Ping(r.Context()); err != nil {
			dbStatus = "disconnected"
		}
	}

	status := "ok"
	if rpcStatus != "connected" || dbStatus == "disconnected" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{RPC: rpcStatus, Database: dbStatus},
	})
}
