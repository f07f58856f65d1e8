package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/errs"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/repository"
	"github.com/yeremiapane/tablehub/utils"
	"golang.org/x/crypto/bcrypt"
)

const minAccessCodeLen = 4

// AuthService validates employee access codes and issues staff tokens.
type AuthService struct {
	employees repository.EmployeeRepository
	tokens    *utils.TokenIssuer
	log       logrus.FieldLogger
}

func NewAuthService(employees repository.EmployeeRepository, tokens *utils.TokenIssuer, log logrus.FieldLogger) *AuthService {
	return &AuthService{employees: employees, tokens: tokens, log: log}
}

// Login exchanges an employee id and access code for a token.
func (s *AuthService) Login(ctx context.Context, employeeID uint, accessCode string) (string, *models.Employee, error) {
	employee, err := s.employees.Get(ctx, employeeID)
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil, errs.ErrUnauthorized
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.AccessCodeHash), []byte(accessCode)); err != nil {
		s.log.WithField("employee_id", employeeID).Warn("rejected access code")
		return "", nil, errs.ErrUnauthorized
	}

	token, err := s.tokens.Generate(employee.ID, employee.Role)
	if err != nil {
		return "", nil, err
	}
	s.log.WithFields(logrus.Fields{
		"employee_id": employee.ID,
		"role":        employee.Role,
	}).Info("employee logged in")
	return token, employee, nil
}

func (s *AuthService) CreateEmployee(ctx context.Context, name, role, accessCode string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	role = strings.ToLower(strings.TrimSpace(role))
	if name == "" {
		return nil, fmt.Errorf("employee name is required: %w", errs.ErrInvalidArgument)
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, fmt.Errorf("unknown role %q: %w", role, errs.ErrInvalidArgument)
	}
	if len(accessCode) < minAccessCodeLen {
		return nil, fmt.Errorf("access code must have at least %d characters: %w", minAccessCodeLen, errs.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Name:           name,
		Role:           role,
		AccessCodeHash: string(hashed),
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"employee_id": employee.ID,
		"role":        employee.Role,
	}).Info("employee created")
	return employee, nil
}

// EnsureAdmin creates the first admin when no employee exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, accessCode string) (*models.Employee, error) {
	if accessCode == "" {
		return nil, nil
	}
	count, err := s.employees.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}
	return s.CreateEmployee(ctx, "admin", models.RoleAdmin, accessCode)
}
