package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

// AuthHandler manages operator accounts. Tokens are stateless, so logout
// only acknowledges; clients drop the token.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type authFunc func(ctx context.Context, email, password string) (*models.User, string, error)

func (h *AuthHandler) Register(c *gin.Context) {
	h.session(c, http.StatusCreated, h.auth.Register)
}

func (h *AuthHandler) Login(c *gin.Context) {
	h.session(c, http.StatusOK, h.auth.Login)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) session(c *gin.Context, status int, fn authFunc) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, token, err := fn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, sessionResponse{Token: token, User: *user})
}
