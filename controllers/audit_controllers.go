package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tablehub/repository"
	"github.com/yeremiapane/tablehub/utils"
)

type AuditController struct {
	Audit repository.AuditRepository
}

func NewAuditController(audit repository.AuditRepository) *AuditController {
	return &AuditController{Audit: audit}
}

func (ac *AuditController) ListAudit(c *gin.Context) {
	limit := queryLimit(c, 100)
	if limit > 1000 {
		limit = 1000
	}

	entries, err := ac.Audit.List(c.Request.Context(), limit)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Audit log", entries)
}
