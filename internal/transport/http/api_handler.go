package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/metrics"

	"go.uber.org/zap"
)

// APIHandler serves the JSON endpoints around the quiz socket.
type APIHandler struct {
	quizzes  *app.QuizService
	catalog  app.QuizCatalog
	shop     *app.ShopService
	notifier app.Notifier
	log      *zap.Logger
}

func NewAPIHandler(quizzes *app.QuizService, catalog app.QuizCatalog, shop *app.ShopService, notifier app.Notifier, log *zap.Logger) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIHandler{quizzes: quizzes, catalog: catalog, shop: shop, notifier: notifier, log: log}
}

// Register mounts every endpoint on mux, wrapped with request metrics.
func (h *APIHandler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /api/pathways/{pathway}/quizzes", "pathway_quizzes", h.listQuizzes},
		{"GET /api/quizzes/{id}", "quiz", h.getQuiz},
		{"GET /api/users/{id}/points", "user_points", h.getPoints},
		{"GET /api/users/{id}/profile", "user_profile", h.getProfile},
		{"GET /api/shop/items", "shop_items", h.listItems},
		{"POST /api/shop/purchase", "shop_purchase", h.purchase},
		{"POST /api/shop/equip", "shop_equip", h.equip},
		{"POST /api/notifications", "notifications", h.publish},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, metrics.Middleware(rt.endpoint, rt.handler))
	}
}

type quizResponse struct {
	domain.QuizSummary
	OpenSessions int `json:"openSessions"`
}

type itemRequest struct {
	UserID int64 `json:"userId"`
	ItemID int64 `json:"itemId"`
}

type notificationRequest struct {
	Message string `json:"message"`
	Target  int64  `json:"target"`
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	pathway := domain.Pathway(strings.ToUpper(r.PathValue("pathway")))
	if !pathway.Valid() {
		h.writeError(w, domain.ErrInvalidPathway)
		return
	}
	quizzes, err := h.catalog.ListQuizzes(r.Context(), pathway)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, open, err := h.quizzes.Summary(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{QuizSummary: summary, OpenSessions: open})
}

func (h *APIHandler) getPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	balance, err := h.shop.Balance(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *APIHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	profile, err := h.shop.Profile(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.Items(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) purchase(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	balance, err := h.shop.Purchase(r.Context(), req.UserID, req.ItemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *APIHandler) equip(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, err := h.shop.Equip(r.Context(), req.UserID, req.ItemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) publish(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	if err := h.notifier.Publish(r.Context(), domain.Notification{Message: req.Message, Target: req.Target}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrItemOwned):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientPoints), errors.Is(err, domain.ErrItemNotOwned):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidPathway):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("api request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
