package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

type MoveController struct {
	Queue *services.MoveQueue
}

func NewMoveController(queue *services.MoveQueue) *MoveController {
	return &MoveController{Queue: queue}
}

// RequestMove -> queue a session or item migration. The move itself runs
// in the background; the response only acknowledges the event.
func (mc *MoveController) RequestMove(c *gin.Context) {
	var req struct {
		SourceTableID  uint   `json:"source_table_id" binding:"required"`
		DestTableID    uint   `json:"dest_table_id" binding:"required"`
		Scope          string `json:"scope"`
		ItemIDs        []uint `json:"item_ids"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}
	scope := models.MoveScope(req.Scope)
	if scope == "" {
		scope = models.MoveScopeAll
	}

	event, duplicate, err := mc.Queue.Enqueue(c.Request.Context(), services.MoveRequest{
		SourceTableID:  req.SourceTableID,
		DestTableID:    req.DestTableID,
		Scope:          scope,
		ItemIDs:        req.ItemIDs,
		IdempotencyKey: key,
	})
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	message := "Move request accepted"
	if duplicate {
		message = "Move request already accepted"
	}
	utils.RespondJSON(c, http.StatusAccepted, message, gin.H{
		"ok":        true,
		"event_id":  event.ID,
		"status":    event.Status,
		"duplicate": duplicate,
	})
}

func (mc *MoveController) GetMove(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}

	event, err := mc.Queue.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Move event detail", event)
}

func (mc *MoveController) ListMoves(c *gin.Context) {
	events, err := mc.Queue.List(c.Request.Context(), models.MoveStatus(c.Query("status")), queryLimit(c, 100))
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of move events", events)
}
