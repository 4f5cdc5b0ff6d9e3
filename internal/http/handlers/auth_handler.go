// Authentication HTTP handlers.
//
// This file exposes REST endpoints for account lifecycle:
//   - POST /auth/register  (create account, returns token)
//   - POST /auth/login     (verify credentials, returns token)
//   - GET  /auth/profile   (authenticated profile lookup)
//   - POST /auth/logout    (stateless acknowledgement)
//
// Tokens are stateless JWTs; logout exists so clients have a uniform endpoint
// to call when discarding their local token, but the server keeps no session
// state to invalidate.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255" example:"Ada Lovelace"`
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"s3cret-pass"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// UserView is the public projection of an account. The password hash never
// leaves the service layer.
type UserView struct {
	ID    uint   `json:"id" example:"42"`
	Name  string `json:"name" example:"Ada Lovelace"`
	Email string `json:"email" example:"ada@example.com"`
	Role  string `json:"role" example:"user"`
}

// AuthPayload carries the token plus the account it was issued for.
type AuthPayload struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func toUserView(u *domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new user and returns a signed token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.SuccessResponse{data=handlers.AuthPayload}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password are required")
		return
	}

	u, token, err := h.authSvc.Register(c.Request.Context(), strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, "User registered successfully", AuthPayload{Token: token, User: toUserView(u)})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a fresh token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.AuthPayload}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, "Login successful", AuthPayload{Token: token, User: toUserView(u)})
}

// Profile godoc
// @ID          profile
// @Summary     Get the authenticated profile
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.UserView}
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid or expired token"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /auth/profile [get]
func (h *Handlers) Profile(c *gin.Context) {
	u, err := h.authSvc.Profile(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, "Profile retrieved successfully", toUserView(u))
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Acknowledges logout. Tokens are stateless; the client discards its copy.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	ok(c, http.StatusOK, "Logged out successfully", nil)
}
