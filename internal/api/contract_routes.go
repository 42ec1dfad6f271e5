package api

import (
	"net/http"

	"github.com/kjannette/contract-gateway/internal/contracts"
	"github.com/kjannette/contract-gateway/internal/ethereum"
	"github.com/kjannette/contract-gateway/internal/models"
)

type unitJSON struct {
	Name            string               `json:"name,omitempty"`
	Inputs          []contracts.Variable `json:"inputs"`
	Outputs         []contracts.Variable `json:"outputs,omitempty"`
	StateMutability string               `json:"stateMutability,omitempty"`
}

type abiJSON struct {
	Name        string     `json:"name"`
	Constructor unitJSON   `json:"constructor"`
	Functions   []unitJSON `json:"functions"`
}

func toUnitJSON(u contracts.Unit) unitJSON {
	inputs := u.Inputs
	if inputs == nil {
		inputs = []contracts.Variable{}
	}
	return unitJSON{
		Name:            u.Name,
		Inputs:          inputs,
		Outputs:         u.Outputs,
		StateMutability: u.StateMutability,
	}
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	names, err := s.contracts.List()
	if err != nil {
		s.fail(w, r, "Error listing contracts", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleDescribeContract(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, err := s.contracts.Describe(name)
	if err != nil {
		s.fail(w, r, "Error reading contract", err)
		return
	}

	out := abiJSON{
		Name:        name,
		Constructor: toUnitJSON(doc.Constructor),
		Functions:   make([]unitJSON, 0, len(doc.Functions)),
	}
	for _, fn := range doc.FunctionNames() {
		unit, _ := doc.Function(fn)
		out.Functions = append(out.Functions, toUnitJSON(unit))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req ethereum.DeployRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, "Invalid deploy request", err)
		return
	}

	addr, err := s.contracts.Deploy(r.Context(), req)
	observeInvocation(models.OpDeploy, err)
	if err != nil {
		s.fail(w, r, "Deploy failed", err)
		return
	}
	writeJSON(w, http.StatusOK, addr.Hex())
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req ethereum.InvokeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, "Invalid call request", err)
		return
	}

	hash, err := s.contracts.Call(r.Context(), req)
	observeInvocation(models.OpCall, err)
	if err != nil {
		s.fail(w, r, "Contract call failed", err)
		return
	}
	writeJSON(w, http.StatusOK, hash.Hex())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req ethereum.InvokeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, "Invalid query request", err)
		return
	}

	results, err := s.contracts.Query(r.Context(), req)
	observeInvocation(models.OpQuery, err)
	if err != nil {
		s.fail(w, r, "Contract query failed", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "invocation ledger is disabled")
		return
	}

	invocations, err := s.history.GetRecent(r.Context(), r.URL.Query().Get("contract"), parseLimit(r, 100))
	if err != nil {
		s.fail(w, r, "Error fetching invocations", err)
		return
	}
	writeJSON(w, http.StatusOK, invocations)
}
