// Package api exposes HTTP handlers for the activity registry.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"example.com/activityregistry/internal/domain"
	"example.com/activityregistry/internal/logger"
)

const (
	activitiesPath   = "/activities"
	activitiesPrefix = "/activities/"
	signupSuffix     = "/signup"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, logger: log}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(activitiesPath, h.activities)
	mux.HandleFunc(activitiesPrefix, h.activityRoster)
	mux.HandleFunc("/healthz", healthz)
}

// RouteLabel collapses request paths into a bounded set of metric labels.
func RouteLabel(r *http.Request) string {
	path := r.URL.Path
	switch {
	case path == activitiesPath:
		return activitiesPath
	case strings.HasPrefix(path, activitiesPrefix) && strings.HasSuffix(path, signupSuffix):
		return "/activities/{name}/signup"
	case path == "/healthz", path == "/metrics":
		return path
	default:
		return "other"
	}
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	activities, err := h.service.ListActivities(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := make(ListActivitiesResponse, len(activities))
	for _, activity := range activities {
		resp[activity.Name] = toActivityView(activity)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activityRoster(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, activitiesPrefix)
	name, ok := strings.CutSuffix(rest, signupSuffix)
	if !ok || name == "" {
		writeError(w, http.StatusNotFound, "not_found", "Not Found")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.signUp(w, r, name)
	case http.MethodDelete:
		h.unregister(w, r, name)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request, name string) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	conf, err := h.service.SignUp(r.Context(), name, email)
	if err != nil {
		h.logger.Debug("sign up rejected", zap.String("activity", name), logger.Email("email", email), zap.Error(err))
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: conf.Message})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request, name string) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	conf, err := h.service.Unregister(r.Context(), name, email)
	if err != nil {
		h.logger.Debug("unregister rejected", zap.String("activity", name), logger.Email("email", email), zap.Error(err))
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: conf.Message})
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "missing email parameter")
		return "", false
	}
	return email, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Activity not found")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "already_registered", "Student is already signed up for this activity")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_registered", "Student is not signed up for this activity")
	default:
		h.logger.Error("unexpected registry error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// ActivityView is the public shape of one activity.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ListActivitiesResponse maps activity name to its view.
type ListActivitiesResponse map[string]ActivityView

// MessageResponse confirms a roster change.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"type": code, "detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	participants := activity.Participants
	if participants == nil {
		participants = []string{}
	}
	return ActivityView{
		Description:     activity.Description,
		Schedule:        activity.Schedule,
		MaxParticipants: activity.MaxParticipants,
		Participants:    participants,
	}
}
