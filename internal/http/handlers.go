package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"ledger/internal/auth"
	"ledger/internal/csvio"
	applog "ledger/internal/log"
	"ledger/internal/services"
)

type secretRequest struct {
	Secret string `json:"secret"`
}

type changeSecretRequest struct {
	Old    string `json:"old"`
	Secret string `json:"secret"`
}

func (s *Server) handleAuthState(w http.ResponseWriter, r *http.Request) {
	if s.sessions.valid(bearerToken(r)) {
		writeJSON(w, http.StatusOK, map[string]string{"state": auth.Authenticated.String()})
		return
	}
	state, err := s.gate.State(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if state == auth.Authenticated {
		// the gate is open for another client, not this one
		state = auth.Locked
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": state.String()})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.gate.SetSecret(r.Context(), req.Secret); err != nil {
		writeError(w, r, err)
		return
	}
	s.startSession(w, r, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.gate.Login(r.Context(), req.Secret); err != nil {
		writeError(w, r, err)
		return
	}
	s.startSession(w, r, http.StatusOK)
}

// startSession loads the working set and hands out a bearer token.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, status int) {
	if err := s.ledger.Open(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	sess := s.sessions.issue()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Session started",
		applog.FieldOperation, applog.OpLogin)
	writeJSON(w, status, sessionJSON{Token: sess.Token, ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339)})
}

func (s *Server) handleChangeSecret(w http.ResponseWriter, r *http.Request) {
	var req changeSecretRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := s.gate.ChangeSecret(r.Context(), req.Old, req.Secret); err != nil {
		writeError(w, r, err)
		return
	}
	// every other session was opened with the old secret
	s.sessions.revokeAll()
	s.startSession(w, r, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.revoke(bearerToken(r))
	s.gate.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewJSON(s.ledger.View(c), s.ledger.Currency()))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var d services.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		badRequest(w, err)
		return
	}
	tx, err := s.ledger.Add(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx, s.ledger.Currency()))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var d services.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		badRequest(w, err)
		return
	}
	tx, err := s.ledger.Update(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx, s.ledger.Currency()))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCounterparties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"counterparties": s.ledger.Counterparties()})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, closeBody, err := importBody(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	defer closeBody()

	rows, err := csvio.ReadRows(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "import too large"})
			return
		}
		badRequest(w, err)
		return
	}

	rep, err := s.ledger.Import(r.Context(), rows)
	if err != nil {
		status, eb := statusFor(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Import finished with failures",
			applog.NewFields().WithOperation(applog.OpImport).WithError(err).ToSlice()...)
		writeJSON(w, status, importJSON{Error: eb.Error, Report: rep})
		return
	}
	writeJSON(w, http.StatusOK, importJSON{Report: rep})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.ledger.ExportCSV(&buf, c); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-`+time.Now().Format("20060102")+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.ledger.Report(c)))
}
