package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"image-library/internal/domain"
	"image-library/internal/service"
)

type registerRequest struct {
	Username         string `form:"username" json:"username"`
	Email            string `form:"email" json:"email"`
	Password1        string `form:"password1" json:"password1"`
	Password2        string `form:"password2" json:"password2"`
	RegisterPassword string `form:"register_password" json:"register_password"`
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type passwordChangeRequest struct {
	OldPassword  string `form:"old_password" json:"old_password"`
	NewPassword1 string `form:"new_password1" json:"new_password1"`
	NewPassword2 string `form:"new_password2" json:"new_password2"`
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) registerForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields": []gin.H{
			{"name": "username", "type": "text", "required": true},
			{"name": "email", "type": "email", "required": false},
			{"name": "password1", "type": "password", "required": true},
			{"name": "password2", "type": "password", "required": true},
			{"name": "register_password", "type": "password", "required": false},
		},
	})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Password1 != req.Password2 {
		writeError(c, h.logger, domain.NewValidationError("password2", "the two password fields didn't match"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password1, req.RegisterPassword)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    userToResponse(user),
		"message": "account created for " + user.Username,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	maxAge := int(h.tokens.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", h.opts.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": maxAge,
		"user":       userToResponse(user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.opts.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if !h.bind(c, &req) {
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		writeError(c, h.logger, domain.NewValidationError("new_password2", "the two password fields didn't match"))
		return
	}

	p := principal(c)
	if err := h.users.ChangePassword(c.Request.Context(), p.UserID, req.OldPassword, req.NewPassword1); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *Handler) profile(c *gin.Context) {
	p := principal(c)
	user, err := h.users.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	profile, err := h.users.GetProfile(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": h.profileToResponse(c, user, profile)})
}

func (h *Handler) updateProfile(c *gin.Context) {
	image, closeImage, err := optionalFile(c, "image")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer closeImage()

	update := service.ProfileUpdate{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Image:    image,
	}
	user, profile, err := h.users.UpdateProfile(c.Request.Context(), principal(c).UserID, update)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := h.profileToResponse(c, user, profile)
	c.JSON(http.StatusOK, gin.H{"profile": resp, "message": "your account has been updated"})
}

func (h *Handler) profileToResponse(c *gin.Context, user *domain.User, profile *domain.Profile) ProfileResponse {
	resp := ProfileResponse{User: userToResponse(user), ImageKey: profile.ImageKey}
	if !profile.HasDefaultImage() {
		resp.ImageURL = h.objectURL(c.Request.Context(), profile.ImageKey)
	}
	return resp
}
