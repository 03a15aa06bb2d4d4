package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

type LoanHandler struct {
	loanService     *services.LoanService
	platformService *services.PlatformService
}

func NewLoanHandler(loanService *services.LoanService, platformService *services.PlatformService) *LoanHandler {
	return &LoanHandler{loanService: loanService, platformService: platformService}
}

func (h *LoanHandler) Create(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	var loan models.Loan
	if err := c.Bind(&loan); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if loan.ClientID == uuid.Nil || loan.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "validation failed",
			"fields": map[string]string{
				"client_id": "client_id is required",
				"amount":    "amount must be positive",
			},
		})
	}
	// The client must belong to the requesting tenant.
	if _, err := h.platformService.GetClient(platform.ID, loan.ClientID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
	}

	loan.ID = uuid.Nil
	if err := h.loanService.Create(&loan); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create loan"})
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *LoanHandler) List(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	loans, err := h.loanService.List(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch loans"})
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) Get(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	loan, err := h.loanService.Get(platform.ID, loanID)
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "loan not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch loan"})
	}
	return c.JSON(http.StatusOK, loan)
}

// Irregular lists the loans that may need legal follow-up.
func (h *LoanHandler) Irregular(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	loans, err := h.loanService.ListIrregular(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch loans"})
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) Analyze(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
	}
	analysis, err := h.loanService.Analyze(platform.ID, loanID)
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "loan not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to analyze loan"})
	}
	return c.JSON(http.StatusOK, analysis)
}
