package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	op, err := h.engine.DB().GetOperator(req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !checkPassword(req.Password, op.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.sessions.setUser(w, r, op.Username)
	writeJSON(w, http.StatusOK, map[string]string{"username": op.Username})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiAlertState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Controller().Snapshot())
}

func (h *Handlers) apiAcceptAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Controller().Accept(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiDismissAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Controller().Dismiss(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.engine.DB().ListOrderSnapshots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *Handlers) apiListDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.engine.DB().ListDecisions(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.AppConfig()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendor_id":      cfg.VendorID,
		"vendor_name":    cfg.VendorName,
		"session_active": h.engine.SessionActive(),
		"polling":        h.engine.Poller().Running(),
		"alert":          h.engine.Controller().Snapshot(),
	})
}

func (h *Handlers) apiResetSession(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetSession()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiUpdateMarketplace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL          string `json:"url"`
		Token        string `json:"token"`
		PollInterval string `json:"poll_interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	if req.URL != "" {
		cfg.Marketplace.URL = req.URL
	}
	if req.Token != "" {
		cfg.Marketplace.Token = req.Token
	}
	if req.PollInterval != "" {
		if d, err := time.ParseDuration(req.PollInterval); err == nil && d > 0 {
			cfg.Marketplace.PollInterval = d
		}
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The token applies to the live client immediately; a URL change
	// needs a restart.
	if req.Token != "" {
		h.engine.ApplyMarketplaceToken(req.Token)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiUpdateMessaging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backend    string   `json:"backend"`
		Broker     string   `json:"broker"`
		Port       int      `json:"port"`
		Brokers    []string `json:"brokers"`
		AuditTopic string   `json:"audit_topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	if req.Backend != "" {
		cfg.Messaging.Backend = req.Backend
	}
	if req.Broker != "" {
		cfg.Messaging.MQTT.Broker = req.Broker
	}
	if req.Port > 0 {
		cfg.Messaging.MQTT.Port = req.Port
	}
	if len(req.Brokers) > 0 {
		cfg.Messaging.Kafka.Brokers = req.Brokers
	}
	if req.AuditTopic != "" {
		cfg.Messaging.AuditTopic = req.AuditTopic
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.New) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	username, _ := h.sessions.getUser(r)
	op, err := h.engine.DB().GetOperator(username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !checkPassword(req.Current, op.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := hashPassword(req.New)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.engine.DB().UpdateOperatorPassword(username, hash); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
