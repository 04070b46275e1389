package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"formbase/backend/common"
	"formbase/backend/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type formRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description"`
	Design      json.RawMessage `json:"design" binding:"required"`
	Status      int             `json:"status"`
}

func formFromContext(c *gin.Context) (*model.Form, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid form id")
		return nil, false
	}
	form, err := model.GetFormById(id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			common.RespErrorStr(c, http.StatusNotFound, "form not found")
		} else {
			common.RespError(c, http.StatusInternalServerError, "failed to load form", err)
		}
		return nil, false
	}
	return form, true
}

func requireFormAccess(c *gin.Context, form *model.Form) bool {
	if form.UserId != c.GetInt64("id") && c.GetInt("role") < common.RoleAdminUser {
		common.RespErrorStr(c, http.StatusForbidden, "not allowed to access this form")
		return false
	}
	return true
}

// CreateForm stores a new form design for the authenticated user.
func CreateForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	status := req.Status
	if status == 0 {
		status = common.FormStatusDraft
	}
	form := &model.Form{
		UserId:      c.GetInt64("id"),
		Title:       req.Title,
		Description: req.Description,
		Design:      string(req.Design),
		Status:      status,
		PublicId:    strings.ReplaceAll(uuid.New().String(), "-", ""),
	}
	if err := form.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to create form", err)
		return
	}
	common.RespSuccess(c, form)
}

// GetForm returns one form owned by the caller.
func GetForm(c *gin.Context) {
	form, ok := formFromContext(c)
	if !ok {
		return
	}
	if !requireFormAccess(c, form) {
		return
	}
	common.RespSuccess(c, form)
}

// GetPublicForm returns a published form by its share-link id. Only
// published forms are visible without authentication.
func GetPublicForm(c *gin.Context) {
	form, err := model.GetFormByPublicId(c.Param("public_id"))
	if err != nil || form.Status != common.FormStatusPublished {
		common.RespErrorStr(c, http.StatusNotFound, "form not found")
		return
	}
	common.RespSuccess(c, form)
}

// ListForms returns the caller's forms, newest first.
func ListForms(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("p", "0"))
	forms, err := model.GetFormsByUser(c.GetInt64("id"), page*common.ItemsPerPage, common.ItemsPerPage)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to list forms", err)
		return
	}
	common.RespSuccess(c, forms)
}

// UpdateForm replaces a form's design and metadata.
func UpdateForm(c *gin.Context) {
	form, ok := formFromContext(c)
	if !ok {
		return
	}
	if !requireFormAccess(c, form) {
		return
	}
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	form.Title = req.Title
	form.Description = req.Description
	form.Design = string(req.Design)
	if req.Status != 0 {
		form.Status = req.Status
	}
	if err := form.Update(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to update form", err)
		return
	}
	common.RespSuccess(c, form)
}

// DeleteForm soft-deletes a form. Its submissions and uploads stay; the
// cleanup scheduler reclaims unreferenced uploads later.
func DeleteForm(c *gin.Context) {
	form, ok := formFromContext(c)
	if !ok {
		return
	}
	if !requireFormAccess(c, form) {
		return
	}
	if err := form.Delete(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to delete form", err)
		return
	}
	common.RespSuccessStr(c, "form deleted")
}
