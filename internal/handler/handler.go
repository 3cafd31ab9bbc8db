package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/honeynil/BooReviewService/internal/infrastructure/auth"
	"github.com/honeynil/BooReviewService/internal/infrastructure/observability"
	"github.com/honeynil/BooReviewService/internal/models"
	service "github.com/honeynil/BooReviewService/internal/services"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
)

const (
	stateCookie = "oauth_state"
	loginPath   = "/accounts/login/"
	stateMaxAge = 600
)

type Handler struct {
	service service.MemberService
}

func NewHandler(s service.MemberService) *Handler {
	return &Handler{service: s}
}

type errorResponse struct {
	Error string `json:"error"`
}

type memberResponse struct {
	ID       int64           `json:"id"`
	Email    string          `json:"email"`
	Nickname string          `json:"nickname"`
	LangCode models.LangCode `json:"lang_code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeServiceError maps service and token errors onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrMemberNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, pkgerrors.ErrInvalidNickname), errors.Is(err, pkgerrors.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, pkgerrors.ErrIdentityExchange):
		h.writeError(w, http.StatusUnauthorized, err)
	case auth.FailureOf(err) != auth.FailureInternal:
		auth.WriteFailure(w, err)
	default:
		observability.WithContext(r.Context(), "path", r.URL.Path).Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
	}
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/accounts/google/", h.GoogleLoginURL).Methods(http.MethodGet)
	r.HandleFunc(loginPath, h.Login).Methods(http.MethodGet)
	r.HandleFunc("/accounts/token/refresh/", h.RefreshTokens).Methods(http.MethodPost)
	r.HandleFunc("/accounts/info/{user_id}", h.GetMember).Methods(http.MethodGet)
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/accounts/nickname/", h.UpdateNickname).Methods(http.MethodPost)
	r.HandleFunc("/accounts/logout/", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/accounts/revocations/", h.ListRevocations).Methods(http.MethodGet)
	r.HandleFunc("/accounts/", h.DeleteMember).Methods(http.MethodDelete)
}

// GoogleLoginURL binds a fresh OAuth state to the caller's browser with a
// short-lived cookie that Login checks against the callback.
func (h *Handler) GoogleLoginURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     loginPath,
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"url": h.service.GoogleLoginURL(state)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("code is required"))
		return
	}

	cookie, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		h.writeError(w, http.StatusBadRequest, errors.New("oauth state mismatch"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: loginPath, MaxAge: -1, HttpOnly: true})

	res, err := h.service.LoginWithGoogle(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.ExistingMember {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *Handler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	refresh, err := auth.ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		auth.WriteFailure(w, err)
		return
	}

	pair, err := h.service.RefreshTokens(r.Context(), refresh)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, errors.New("user_id must be a positive integer"))
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse{
		ID:       member.ID,
		Email:    member.Email,
		Nickname: member.Nickname,
		LangCode: member.LangCode,
	})
}

func (h *Handler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("member not authenticated"))
		return
	}

	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, err := h.service.UpdateNickname(r.Context(), principal.MemberID, req.Nickname)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nickname": stored})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("member not authenticated"))
		return
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.Logout(r.Context(), principal.AccessToken, req.Refresh); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("member not authenticated"))
		return
	}

	if err := h.service.DeleteMember(r.Context(), principal.MemberID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRevocations(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("member not authenticated"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	revs, err := h.service.ListRevocations(r.Context(), principal.MemberID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if revs == nil {
		revs = []models.Revocation{}
	}
	writeJSON(w, http.StatusOK, revs)
}
