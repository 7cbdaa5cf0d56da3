// internal/server/admin.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errBackupDisabled = errors.New("backups are not configured")

func (s *NutritionServer) exportSnapshot(c *gin.Context) {
	snap, err := s.storage.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="nutrition-export.json"`)
	c.JSON(http.StatusOK, snap)
}

func (s *NutritionServer) runBackup(c *gin.Context) {
	if s.backup == nil {
		respondError(c, errBackupDisabled)
		return
	}
	res, err := s.backup.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
