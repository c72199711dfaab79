package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deviceloan/activity"
	"deviceloan/app"
	"deviceloan/config"
	"deviceloan/engine"
	"deviceloan/identity"
	"deviceloan/models"
	"deviceloan/session"
	"deviceloan/state"
	"deviceloan/store"
)

// Srv is the shared controller base; the per-area controllers embed it.
type Srv struct {
	GW        store.Gateway
	State     *state.AppState
	Engine    *engine.Engine
	Approvals *engine.ApprovalEngine
	Resolver  *identity.Resolver
	Sink      *activity.Sink
	Notifier  *activity.Notifier
	Sessions  session.Store
	Cfg       config.Config
	Log       *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		GW:        a.Gateway,
		State:     a.State,
		Engine:    a.Engine,
		Approvals: a.Approvals,
		Resolver:  a.Resolver,
		Sink:      a.Sink,
		Notifier:  a.Notifier,
		Sessions:  a.Sessions,
		Cfg:       a.Config,
		Log:       a.Log,
	}
}

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func currentUser(c *gin.Context) models.Profile {
	u, _ := app.CurrentUser(c)
	return u
}

// fail maps engine errors onto HTTP statuses and raises the error
// notification the UI shows. Nothing in the engines throws past here.
func (s *Srv) fail(c *gin.Context, err error) {
	var remote *store.RemoteError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrEligibility):
		status = http.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrProfileResolution):
		status = http.StatusUnauthorized
	case errors.As(err, &remote):
		status = http.StatusBadGateway
	}
	s.Notifier.Push(err.Error(), "error")
	c.JSON(status, app.H{"error": err.Error()})
}

func (s *Srv) ok(c *gin.Context, message string, body app.H) {
	if message != "" {
		s.Notifier.Push(message, "success")
	}
	if body == nil {
		body = app.H{}
	}
	body["ok"] = true
	c.JSON(http.StatusOK, body)
}
