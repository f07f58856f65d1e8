package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		EmployeeID uint   `json:"employee_id" binding:"required"`
		AccessCode string `json:"access_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	token, employee, err := ac.Auth.Login(c.Request.Context(), input.EmployeeID, input.AccessCode)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login success", gin.H{
		"token": token,
		"role":  employee.Role,
		"name":  employee.Name,
	})
}

// CreateEmployee -> admin registers a staff member or another admin
func (ac *AuthController) CreateEmployee(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Role       string `json:"role" binding:"required"`
		AccessCode string `json:"access_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	employee, err := ac.Auth.CreateEmployee(c.Request.Context(), req.Name, req.Role, req.AccessCode)
	if err != nil {
		utils.RespondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Employee created", employee)
}
