package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

type TableController struct {
	Registry *services.TableRegistry
}

func NewTableController(registry *services.TableRegistry) *TableController {
	return &TableController{Registry: registry}
}

// CreateTable -> provision a new table (admin)
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Kind        string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	kind := models.TableKind(req.Kind)
	if kind == "" {
		kind = models.TableKindTimed
	}

	table, err := tc.Registry.Create(c.Request.Context(), req.TableNumber, kind)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> every table with its current charge
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Registry.List(c.Request.Context())
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	table, err := tc.Registry.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

func (tc *TableController) StartTable(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	var req struct {
		Rate          decimal.Decimal `json:"rate"`
		LimitMinutes  *int            `json:"limit_minutes"`
		ServiceCharge decimal.Decimal `json:"service_charge"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Registry.Start(c.Request.Context(), id, services.StartRequest{
		Rate:          req.Rate,
		LimitMinutes:  req.LimitMinutes,
		ServiceCharge: req.ServiceCharge,
	})
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table started", table)
}

func (tc *TableController) StopTable(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	result, err := tc.Registry.Stop(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table stopped", result)
}

func (tc *TableController) PauseTable(c *gin.Context) {
	tc.toggle(c, tc.Registry.Pause, "Table paused")
}

func (tc *TableController) ResumeTable(c *gin.Context) {
	tc.toggle(c, tc.Registry.Resume, "Table resumed")
}

func (tc *TableController) toggle(c *gin.Context, op func(ctx context.Context, id uint) (*services.TableSnapshot, error), message string) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	if _, err := op(c.Request.Context(), id); err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{"ok": true})
}

func (tc *TableController) EnterCleaning(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	var req struct {
		Minutes int `json:"minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Registry.EnterCleaning(c.Request.Context(), id, req.Minutes)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cleaning scheduled", gin.H{"cleaning_until": table.CleaningUntil})
}

func (tc *TableController) SetLight(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	var req struct {
		On *bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.On == nil {
		utils.RespondDomainError(c, fmt.Errorf("on is required: %w", errs.ErrInvalidArgument))
		return
	}

	table, err := tc.Registry.SetLight(c.Request.Context(), id, *req.On)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Light updated", table)
}

func (tc *TableController) SettleTable(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	table, err := tc.Registry.Settle(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table settling", table)
}

func (tc *TableController) AddCharge(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Registry.AddServiceCharge(c.Request.Context(), id, req.Amount)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Service charge added", table)
}
