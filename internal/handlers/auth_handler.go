package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/middleware"
	"github.com/eventstudio/eventstudio-api/internal/services"
)

const invalidInput = "Invalid input. Please check your fields."

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Age       *string   `json:"age"`
	Gender    *string   `json:"gender"`
	Location  *string   `json:"location"`
	Interests *[]string `json:"interests"`
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	session, err := middleware.GetServices(c).Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	respondWithSession(c, http.StatusCreated, "User registered successfully", session)
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	session, err := middleware.GetServices(c).Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	respondWithSession(c, http.StatusOK, "Login successful", session)
}

func respondWithSession(c *gin.Context, status int, message string, session *services.Session) {
	helpers.SetSessionCookie(c, middleware.GetCookiePolicy(c), session.Token)
	helpers.RespondWithSuccess(c, status, gin.H{
		"message": message,
		"token":   session.Token,
		"user":    session.User.Public(),
	})
}

func Logout(c *gin.Context) {
	helpers.ClearSessionCookie(c, middleware.GetCookiePolicy(c))
	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func GetProfile(c *gin.Context) {
	user, err := middleware.GetServices(c).Auth.GetProfile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{"user": user.Profile()})
}

func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, invalidInput)
		return
	}

	user, err := middleware.GetServices(c).Auth.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, services.ProfilePatch{
		Age:       req.Age,
		Gender:    req.Gender,
		Location:  req.Location,
		Interests: req.Interests,
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	helpers.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user.Profile(),
	})
}
