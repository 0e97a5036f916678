package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/config"
	"github.com/coachkit/automation/internal/engine"
	"github.com/coachkit/automation/internal/flow"
	"github.com/coachkit/automation/internal/rule"
)

// SubjectDirectory registers subjects on the active roster. The in-memory
// store implements it; SQL-backed deployments manage their roster elsewhere
// and pass nil.
type SubjectDirectory interface {
	UpsertSubject(sub collab.Subject)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	svc       *engine.Service
	loader    *config.Loader
	directory SubjectDirectory
	mux       *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(svc *engine.Service, loader *config.Loader, directory SubjectDirectory) http.Handler {
	h := &Handler{svc: svc, loader: loader, directory: directory, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.postEvent)
	h.mux.HandleFunc("POST /v1/data-changes", h.postDataChange)
	h.mux.HandleFunc("POST /v1/sweep", h.postSweep)
	h.mux.HandleFunc("POST /v1/onboarding", h.postOnboarding)
	h.mux.HandleFunc("POST /v1/subjects", h.postSubject)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules", h.addRule)
	h.mux.HandleFunc("PATCH /v1/rules/{id}", h.patchRule)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — dispatch a named domain event.
func (h *Handler) postEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string       `json:"name"`
		Context flow.Context `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "event name is required")
		return
	}
	fired := h.svc.OnEvent(r.Context(), req.Name, req.Context)
	writeJSON(w, http.StatusOK, map[string]any{"fired": firedOrEmpty(fired)})
}

// POST /v1/data-changes — dispatch a data-field change notification.
func (h *Handler) postDataChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entity  string       `json:"entity"`
		Field   string       `json:"field"`
		Context flow.Context `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Entity == "" || req.Field == "" {
		writeError(w, http.StatusBadRequest, "entity and field are required")
		return
	}
	fired := h.svc.OnDataChange(r.Context(), req.Entity, req.Field, req.Context)
	writeJSON(w, http.StatusOK, map[string]any{"fired": firedOrEmpty(fired)})
}

// POST /v1/sweep — run the scheduled sweep now. An optional RFC 3339 "now"
// lets operators replay a missed window.
func (h *Handler) postSweep(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var req struct {
		Now string `json:"now"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid now: %s", err))
			return
		}
		now = parsed
	}
	report := h.svc.RunScheduledSweep(r.Context(), now)
	writeJSON(w, http.StatusOK, report)
}

// POST /v1/onboarding — start the new-client onboarding sequence.
func (h *Handler) postOnboarding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"client_id"`
		CoachID  string `json:"coach_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.ClientID == "" || req.CoachID == "" {
		writeError(w, http.StatusBadRequest, "client_id and coach_id are required")
		return
	}
	h.svc.OnboardClient(r.Context(), req.ClientID, req.CoachID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "onboarding started"})
}

// POST /v1/subjects — register a subject on the active roster.
func (h *Handler) postSubject(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeError(w, http.StatusNotImplemented, "subject roster is managed externally")
		return
	}
	var sub collab.Subject
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if sub.ID == "" {
		writeError(w, http.StatusBadRequest, "subject id is required")
		return
	}
	h.directory.UpsertSubject(sub)
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// GET /v1/rules — list the current rule set.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules := h.svc.Rules()
	views := make([]config.RuleDef, 0, len(rules))
	for _, rl := range rules {
		views = append(views, toDef(rl))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": views})
}

// POST /v1/rules — register a rule at runtime.
func (h *Handler) addRule(w http.ResponseWriter, r *http.Request) {
	var def config.RuleDef
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := config.Validate(&config.File{Version: "inline", Rules: []config.RuleDef{def}}); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rl, err := rule.Build(def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.svc.AddRule(rl)
	writeJSON(w, http.StatusCreated, map[string]string{"id": rl.ID})
}

// PATCH /v1/rules/{id} — toggle or rename a rule. Unknown IDs are a no-op,
// mirroring the registry's defensive semantics.
func (h *Handler) patchRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Enabled *bool   `json:"enabled"`
		Name    *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Enabled != nil {
		if *req.Enabled {
			h.svc.EnableRule(id)
		} else {
			h.svc.DisableRule(id)
		}
	}
	if req.Name != nil {
		h.svc.UpdateRule(id, rule.Patch{Name: req.Name})
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// POST /v1/rules/reload — re-read the rule file and reseed the registry.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rules, err := rule.FromConfig(cfg.Rules)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.svc.Reseed(rules)
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":    true,
		"rules_count": len(rules),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — ready once the rule set is seeded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"rules":  len(h.svc.Rules()),
	})
}

func firedOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// toDef converts a domain rule back to its wire/config shape.
func toDef(rl *rule.Rule) config.RuleDef {
	def := config.RuleDef{
		ID:      rl.ID,
		Name:    rl.Name,
		Enabled: rl.Enabled,
	}
	switch t := rl.Trigger.(type) {
	case rule.ScheduleTrigger:
		def.Trigger.Schedule = &config.ScheduleDef{
			Cadence:   string(t.Cadence),
			DayOfWeek: t.DayOfWeek,
			Hour:      t.Hour,
		}
	case rule.DataChangeTrigger:
		def.Trigger.DataChange = &config.DataChangeDef{Entity: t.Entity, Field: t.Field}
	case rule.EventTrigger:
		def.Trigger.Event = &config.EventDef{Name: t.Name}
	}
	for _, c := range rl.Conditions {
		def.Conditions = append(def.Conditions, config.ConditionDef{
			Field: c.Field,
			Op:    string(c.Op),
			Value: c.Value,
		})
	}
	for _, a := range rl.Actions {
		def.Actions = append(def.Actions, config.ActionDef{
			Kind:     string(a.Kind),
			Priority: string(a.Priority),
			Params:   a.Params,
		})
	}
	return def
}
