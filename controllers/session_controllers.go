package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// GetTableSession -> open session of a table with its items
func (sc *SessionController) GetTableSession(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	view, err := sc.Sessions.CurrentSession(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current session", view)
}

func (sc *SessionController) AddItem(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	var req struct {
		Name     string          `json:"name" binding:"required"`
		Quantity int             `json:"quantity" binding:"required"`
		Price    decimal.Decimal `json:"price"`
		Notes    string          `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := sc.Sessions.AddItem(c.Request.Context(), id, services.ItemInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Notes:    req.Notes,
	})
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", item)
}

func (sc *SessionController) GetSessionItems(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	items, err := sc.Sessions.ItemsOfSession(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session items", items)
}
