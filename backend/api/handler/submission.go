package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"formbase/backend/common"
	"formbase/backend/model"

	"github.com/gin-gonic/gin"
)

// SubmitForm records one filled-out form. Public: the form is addressed by
// its share-link id and the caller may be anonymous.
func SubmitForm(c *gin.Context) {
	form, err := model.GetFormByPublicId(c.Param("public_id"))
	if err != nil || form.Status != common.FormStatusPublished {
		common.RespErrorStr(c, http.StatusNotFound, "form not found")
		return
	}
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid submission payload", err)
		return
	}
	submission := &model.Submission{
		FormId:    form.ID,
		UserId:    c.GetInt64("id"),
		Payload:   string(payload),
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := submission.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to store submission", err)
		return
	}
	common.RespSuccess(c, gin.H{"id": submission.ID})
}

// ListSubmissions returns a form's submissions to its owner, newest first.
func ListSubmissions(c *gin.Context) {
	form, ok := formFromContext(c)
	if !ok {
		return
	}
	if !requireFormAccess(c, form) {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("p", "0"))
	submissions, err := model.GetSubmissionsByForm(form.ID, page*common.ItemsPerPage, common.ItemsPerPage)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to list submissions", err)
		return
	}
	common.RespSuccess(c, submissions)
}

// DeleteSubmission removes one submission.
func DeleteSubmission(c *gin.Context) {
	form, ok := formFromContext(c)
	if !ok {
		return
	}
	if !requireFormAccess(c, form) {
		return
	}
	sid, err := strconv.ParseInt(c.Param("sid"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid submission id")
		return
	}
	submission, err := model.GetSubmissionById(sid)
	if err != nil || submission.FormId != form.ID {
		common.RespErrorStr(c, http.StatusNotFound, "submission not found")
		return
	}
	if err := submission.Delete(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to delete submission", err)
		return
	}
	common.RespSuccessStr(c, "submission deleted")
}
