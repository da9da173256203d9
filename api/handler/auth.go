package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/api/transport"
	"github.com/fastygo/questboard/pkg/httpcontext"
	authUC "github.com/fastygo/questboard/usecase/auth"
)

// maxSessionTTL caps the lifetime a client may ask for.
const maxSessionTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	defaultTTL time.Duration
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		defaultTTL:  ttl,
	}
}

// @Summary Sign in and open a session
// @Tags auth
// @Accept json
// @Success 201 {object} transport.SessionResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthLoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.CreateSession(stdCtx, req.UserID, h.sessionTTL(req.TTL))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewSessionResponse(session, time.Now()))
}

// @Summary Extend a live session
// @Tags auth
// @Accept json
// @Success 200 {object} transport.SessionResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.RefreshSession(stdCtx, req.SessionID, h.sessionTTL(req.TTL))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(session, time.Now()))
}

// @Summary Sign out
// @Tags auth
// @Accept json
// @Success 204
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	var req transport.LogoutRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RevokeSession(stdCtx, req.SessionID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// sessionTTL converts the requested lifetime, falling back to the default and capping at maxSessionTTL.
func (h *AuthHandler) sessionTTL(seconds int) time.Duration {
	if seconds <= 0 {
		return h.defaultTTL
	}
	ttl := time.Duration(seconds) * time.Second
	if ttl > maxSessionTTL {
		return maxSessionTTL
	}
	return ttl
}
