package controllers

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"deviceloan/app"
	"deviceloan/models"
	"deviceloan/store"
)

type UploadController struct{ *Srv }

func NewUploadController(s *Srv) *UploadController { return &UploadController{Srv: s} }

const defaultMaxUploadMB = 5

// uploadErr raises the error notification and answers with the given status.
func (uc *UploadController) uploadErr(c *gin.Context, status int, msg string) {
	uc.Notifier.Push(msg, "error")
	c.JSON(status, app.H{"error": msg})
}

// Upload validates an image and hands it to the store as base64, returning
// the public URL. Ceiling in megabytes comes from the caller, default 5.
func (uc *UploadController) Upload(c *gin.Context) {
	if uc.Cfg.DriveFolderID == "" {
		uc.uploadErr(c, http.StatusBadRequest, "upload folder is not configured")
		return
	}

	maxMB := defaultMaxUploadMB
	if v := c.PostForm("maxSizeMB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxMB = n
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		uc.uploadErr(c, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	if header.Size > int64(maxMB)*1024*1024 {
		uc.uploadErr(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", maxMB))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, int64(maxMB)*1024*1024+1))
	if err != nil {
		uc.uploadErr(c, http.StatusBadRequest, "could not read file")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		uc.uploadErr(c, http.StatusBadRequest, "only image files are allowed")
		return
	}

	res, err := store.Call(c.Request.Context(), uc.GW, store.ActionUploadFile, "", map[string]any{
		"base64Data": "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
		"fileName":   header.Filename,
		"folderId":   uc.Cfg.DriveFolderID,
	})
	if err != nil {
		uc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"url": res.URL})
}

// UpdateProfilePicture persists a new picture URL for the current user:
// teachers to the Teachers sheet, students to their grade sheet.
func (uc *UploadController) UpdateProfilePicture(c *gin.Context) {
	var in struct {
		ImageURL string `json:"imageUrl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	user := currentUser(c)

	switch user.Role {
	case models.RoleTeacher, models.RoleAdmin:
		patch := map[string]any{"id": user.ID, "profileImageUrl": in.ImageURL}
		if _, err := store.Call(c.Request.Context(), uc.GW, store.ActionUpdate, store.Teachers, patch); err != nil {
			uc.fail(c, err)
			return
		}
		for _, t := range uc.State.Teachers() {
			if t.ID == user.ID {
				t.ProfileImageURL = in.ImageURL
				uc.State.PutTeacher(t)
			}
		}
	case models.RoleStudent:
		patch := map[string]any{"id": user.ID, "profileImageUrl": in.ImageURL}
		if _, err := store.Call(c.Request.Context(), uc.GW, store.ActionUpdate, studentCollection(user.Grade), patch); err != nil {
			uc.fail(c, err)
			return
		}
		for _, s := range uc.State.Students() {
			if s.ID == user.ID {
				s.ProfileImageURL = in.ImageURL
				uc.State.PutStudent(s)
			}
		}
	default:
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}

	user.ProfileImageURL = in.ImageURL
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = uc.Sessions.Create(c.Request.Context(), ck.Value, user)
	}
	uc.ok(c, "Profile picture updated", app.H{"user": user})
}

func studentCollection(grade int) string {
	switch {
	case grade <= 4:
		return store.StudentsM4
	case grade == 5:
		return store.StudentsM5
	default:
		return store.StudentsM6
	}
}
