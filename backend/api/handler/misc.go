package handler

import (
	"net/http"
	"time"

	"formbase/backend/common"
	"formbase/backend/service"

	"github.com/gin-gonic/gin"
)

// GetStatus reports process identity and the active storage backend.
func GetStatus(c *gin.Context) {
	backendType := ""
	if backend := service.GetStorageBackend(); backend != nil {
		backendType = string(backend.Type())
	}
	common.RespSuccess(c, gin.H{
		"version":          common.Version,
		"system_name":      common.GetSystemName(),
		"start_time":       common.StartTime,
		"started_at":       common.FormatTime(time.Unix(common.StartTime, 0)),
		"register_enabled": common.GetRegisterEnabled(),
		"storage_type":     backendType,
	})
}

// GetOptions returns the visible system options (root only).
func GetOptions(c *gin.Context) {
	options, err := service.AllOptions()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to load options", err)
		return
	}
	common.RespSuccess(c, options)
}

// UpdateOption persists one system option (root only).
func UpdateOption(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := service.UpdateOption(req.Key, req.Value); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to update option", err)
		return
	}
	common.RespSuccessStr(c, "option updated")
}
