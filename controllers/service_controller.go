package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"deviceloan/app"
)

type ServiceController struct{ *Srv }

func NewServiceController(s *Srv) *ServiceController { return &ServiceController{Srv: s} }

func (sc *ServiceController) List(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"requests": sc.State.ServiceRequests()})
}

// Advance moves a ticket Pending -> In Progress -> Resolved.
func (sc *ServiceController) Advance(c *gin.Context) {
	req, err := sc.Engine.AdvanceServiceRequest(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		sc.fail(c, err)
		return
	}
	sc.ok(c, fmt.Sprintf("Ticket for %s is now %s", req.Device.Name, req.Status), app.H{"request": req})
}
