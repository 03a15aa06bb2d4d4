package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	custommiddleware "github.com/carlospion/AvocadoLegal/middleware"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

type PlatformHandler struct {
	platformService *services.PlatformService
	loanService     *services.LoanService
}

func NewPlatformHandler(platformService *services.PlatformService, loanService *services.LoanService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService, loanService: loanService}
}

// Register is the public tenant onboarding endpoint. The API key is only ever
// returned here.
func (h *PlatformHandler) Register(c echo.Context) error {
	var input services.RegisterPlatformInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if fields := input.Validate(); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": fields,
		})
	}

	platform, err := h.platformService.Register(input)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to register platform"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      platform.ID,
		"name":    platform.Name,
		"api_key": platform.APIKey,
		"message": "Platform registered successfully. Save your API key securely.",
	})
}

func (h *PlatformHandler) RegenerateAPIKey(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	key, err := h.platformService.RegenerateAPIKey(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to regenerate api key"})
	}
	return c.JSON(http.StatusOK, map[string]string{"api_key": key})
}

func (h *PlatformHandler) ListUsers(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	users, err := h.platformService.ListUsers(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch users"})
	}
	return c.JSON(http.StatusOK, users)
}

func (h *PlatformHandler) CreateUser(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	var user models.PlatformUser
	if err := c.Bind(&user); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if user.ExternalID == "" || user.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "validation failed",
			"fields": map[string]string{
				"external_id": "external_id is required",
				"name":        "name is required",
			},
		})
	}
	user.ID = uuid.Nil
	user.PlatformID = platform.ID
	if err := h.platformService.CreateUser(&user); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *PlatformHandler) ListClients(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	clients, err := h.platformService.ListClients(platform.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch clients"})
	}
	return c.JSON(http.StatusOK, clients)
}

func (h *PlatformHandler) CreateClient(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	var client models.Client
	if err := c.Bind(&client); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if client.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": map[string]string{"name": "name is required"},
		})
	}
	client.ID = uuid.Nil
	client.PlatformID = platform.ID
	if err := h.platformService.CreateClient(&client); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create client"})
	}
	return c.JSON(http.StatusCreated, client)
}

func (h *PlatformHandler) GetClient(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client id"})
	}
	client, err := h.platformService.GetClient(platform.ID, clientID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch client"})
	}
	return c.JSON(http.StatusOK, client)
}

// GetClientLoans lists all loans of one client.
func (h *PlatformHandler) GetClientLoans(c echo.Context) error {
	platform := custommiddleware.PlatformFrom(c)
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client id"})
	}
	loans, err := h.loanService.ListByClient(platform.ID, clientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch loans"})
	}
	return c.JSON(http.StatusOK, loans)
}
