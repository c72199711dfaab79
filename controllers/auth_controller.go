package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"deviceloan/app"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	profile, err := ac.Resolver.Authenticate(in.Identifier, in.Password)
	if err != nil {
		ac.fail(c, err)
		return
	}

	id := uuid.NewString()
	if err := ac.Sessions.Create(c.Request.Context(), id, profile); err != nil {
		ac.Log.Error("create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "could not create session"})
		return
	}
	ac.setAppCookie(c.Writer, id, ac.Cfg.SessionTTL)
	c.JSON(http.StatusOK, app.H{"user": profile})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sessions.Delete(c.Request.Context(), ck.Value)
	}
	ac.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AuthController) Whoami(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"user": currentUser(c)})
}
