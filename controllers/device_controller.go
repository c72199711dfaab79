package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"deviceloan/app"
	"deviceloan/engine"
	"deviceloan/models"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

func (dc *DeviceController) List(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"devices": dc.State.Devices()})
}

// Lookup resolves a scanned code (asset tag or serial number).
func (dc *DeviceController) Lookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing code"})
		return
	}
	d, ok := dc.State.DeviceByCode(code)
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, app.H{"device": d})
}

func (dc *DeviceController) Save(c *gin.Context) {
	var in models.Device
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		in.ID = id
	}
	d, err := dc.Engine.SaveDevice(c.Request.Context(), in, currentUser(c))
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, fmt.Sprintf("Saved %s", d.Name), app.H{"device": d})
}

func (dc *DeviceController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := dc.Engine.DeleteDevice(c.Request.Context(), id, currentUser(c)); err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, fmt.Sprintf("Successfully deleted %s", id), nil)
}

func (dc *DeviceController) Borrow(c *gin.Context) {
	d, err := dc.Engine.RequestBorrow(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		dc.fail(c, err)
		return
	}
	msg := fmt.Sprintf("Borrowed %s", d.Name)
	if d.Status == models.StatusPendingApproval {
		msg = "Borrow request submitted, awaiting admin approval"
	}
	dc.ok(c, msg, app.H{"device": d})
}

func (dc *DeviceController) Approve(c *gin.Context) {
	var in struct {
		AppleID     string   `json:"appleId"`
		BorrowNotes string   `json:"borrowNotes"`
		Accessories []string `json:"accessories"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d, success, err := dc.Engine.Approve(c.Request.Context(), c.Param("id"), in.AppleID, in.BorrowNotes, in.Accessories, currentUser(c))
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, fmt.Sprintf("Approved request for %s", d.Name), app.H{"device": d, "borrow": success})
}

func (dc *DeviceController) Reject(c *gin.Context) {
	d, err := dc.Engine.Reject(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.Notifier.Push(fmt.Sprintf("Rejected request for %s", d.Name), "info")
	c.JSON(http.StatusOK, app.H{"ok": true, "device": d})
}

func (dc *DeviceController) Assign(c *gin.Context) {
	var in struct {
		UserID      string   `json:"userId" binding:"required"`
		AppleID     string   `json:"appleId"`
		BorrowNotes string   `json:"borrowNotes"`
		Accessories []string `json:"accessories"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	target, ok := dc.directoryProfile(in.UserID)
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	d, success, err := dc.Engine.Assign(c.Request.Context(), c.Param("id"), target, in.AppleID, in.BorrowNotes, in.Accessories, currentUser(c))
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, fmt.Sprintf("Assigned %s to %s", d.Name, target.Username), app.H{"device": d, "borrow": success})
}

func (dc *DeviceController) Return(c *gin.Context) {
	var in struct {
		ICloudEmail       string `json:"icloudEmail"`
		ReturnNotes       string `json:"returnNotes"`
		SignedOutOfICloud bool   `json:"signedOutOfICloud"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	// The sign-out confirmation gate from the return dialog.
	if !in.SignedOutOfICloud {
		dc.fail(c, fmt.Errorf("%w: confirm you signed out of iCloud first", engine.ErrValidation))
		return
	}
	d, entry, err := dc.Engine.Return(c.Request.Context(), c.Param("id"), currentUser(c), in.ICloudEmail, in.ReturnNotes)
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, fmt.Sprintf("Returned %s", d.Name), app.H{"device": d, "history": entry})
}

func (dc *DeviceController) Report(c *gin.Context) {
	var in struct {
		Description    string `json:"description" binding:"required"`
		RepairLocation string `json:"repairLocation"`
		RepairImageURL string `json:"repairImageUrl"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := dc.Engine.ReportIssue(c.Request.Context(), c.Param("id"), currentUser(c), in.Description, in.RepairLocation, in.RepairImageURL)
	if err != nil {
		dc.fail(c, err)
		return
	}
	dc.ok(c, "Repair request submitted", app.H{"request": req})
}

// directoryProfile finds an assignable user by id across both directories.
func (dc *DeviceController) directoryProfile(userID string) (models.Profile, bool) {
	for _, t := range dc.State.Teachers() {
		if t.ID == userID {
			return t.Profile(), true
		}
	}
	for _, s := range dc.State.Students() {
		if s.ID == userID {
			return s.Profile(), true
		}
	}
	return models.Profile{}, false
}
