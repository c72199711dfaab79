package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"deviceloan/app"
	"deviceloan/models"
)

type ProductController struct{ *Srv }

func NewProductController(s *Srv) *ProductController { return &ProductController{Srv: s} }

func (pc *ProductController) List(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"products": pc.State.Products()})
}

func (pc *ProductController) Save(c *gin.Context) {
	var in models.Product
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		in.ID = id
	}
	p, err := pc.Engine.SaveProduct(c.Request.Context(), in, currentUser(c))
	if err != nil {
		pc.fail(c, err)
		return
	}
	pc.ok(c, fmt.Sprintf("Saved %s", p.Name), app.H{"product": p})
}

func (pc *ProductController) Delete(c *gin.Context) {
	if err := pc.Engine.DeleteProduct(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		pc.fail(c, err)
		return
	}
	pc.ok(c, "Successfully deleted product", nil)
}

// Request files a product approval request (teacher asking for stock).
func (pc *ProductController) Request(c *gin.Context) {
	var in struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := pc.Approvals.SubmitRequest(c.Request.Context(), c.Param("id"), in.Quantity, currentUser(c))
	if err != nil {
		pc.fail(c, err)
		return
	}
	pc.ok(c, fmt.Sprintf("Requested %d x %s", req.Quantity, req.ProductName), app.H{"request": req})
}

func (pc *ProductController) ListApprovals(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"requests": pc.State.ProductApprovals()})
}

func (pc *ProductController) ApproveRequest(c *gin.Context) {
	req, err := pc.Approvals.Decide(c.Request.Context(), c.Param("id"), true, "", currentUser(c))
	if err != nil {
		pc.fail(c, err)
		return
	}
	pc.ok(c, fmt.Sprintf("Approved product %s", req.ProductName), app.H{"request": req})
}

func (pc *ProductController) RejectRequest(c *gin.Context) {
	var in struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&in)
	req, err := pc.Approvals.Decide(c.Request.Context(), c.Param("id"), false, in.Reason, currentUser(c))
	if err != nil {
		pc.fail(c, err)
		return
	}
	pc.Notifier.Push(fmt.Sprintf("Rejected product %s", req.ProductName), "info")
	c.JSON(http.StatusOK, app.H{"ok": true, "request": req})
}
