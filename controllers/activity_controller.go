package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deviceloan/app"
)

type ActivityController struct{ *Srv }

func NewActivityController(s *Srv) *ActivityController { return &ActivityController{Srv: s} }

func (ac *ActivityController) Logs(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"logs": ac.State.ActivityLogs()})
}

func (ac *ActivityController) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"notifications": ac.Notifier.List()})
}

func (ac *ActivityController) History(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"history": ac.State.History()})
}

func (ac *ActivityController) Users(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{
		"teachers": ac.State.Teachers(),
		"students": ac.State.Students(),
	})
}
