// Package httpapi exposes the account service as the REST API consumed by
// the marketplace clients.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/logging"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/products"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/users"
)

// dateLayout is the wire format of dateOfBirth.
const dateLayout = "2006-01-02"

type Handler struct {
	svc      *users.Service
	products *products.Service
	logger   logging.Logger
}

func NewHandler(svc *users.Service, products *products.Service, logger logging.Logger) *Handler {
	return &Handler{svc: svc, products: products, logger: logger}
}

// -------------------- public --------------------

func (h *Handler) register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Register(c.Request.Context(), users.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"sessionToken": res.SessionToken,
		"expiresAt":    res.ExpiresAt.Unix(),
		"user":         profileJSON(res.Profile),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, expiresAt, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresAt":   expiresAt.Unix(),
	})
}

// -------------------- authenticated --------------------

func (h *Handler) logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	claims := extractClaims(c)
	profile, err := h.svc.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profileJSON(profile)})
}

// detailsRequest is the full profile mirror submitted by the clients.
type detailsRequest struct {
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	DateOfBirth string          `json:"dateOfBirth"`
	Phone       string          `json:"phone"`
	Address     *models.Address `json:"address"`
}

func (r *detailsRequest) toUpdate() (users.DetailsUpdate, error) {
	upd := users.DetailsUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, r.DateOfBirth)
		if err != nil {
			return upd, err
		}
		upd.DateOfBirth = dob
	}
	return upd, nil
}

func (h *Handler) updateMe(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth, want YYYY-MM-DD"})
		return
	}

	claims := extractClaims(c)
	profile, err := h.svc.UpdateDetails(c.Request.Context(), claims.UserID, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profileJSON(profile)})
}

func (h *Handler) changePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := extractClaims(c)
	if err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.fail(c, err)
		return
	}

	claims := extractClaims(c)
	photoPath, thumbnailPath, err := h.svc.UploadPhoto(c.Request.Context(), claims.UserID, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"photoPath":     photoPath,
		"thumbnailPath": thumbnailPath,
	})
}

// -------------------- admin --------------------

func (h *Handler) listUsers(c *gin.Context) {
	profiles, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth, want YYYY-MM-DD"})
		return
	}

	profile, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profileJSON(profile)})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -------------------- helpers --------------------

// fail translates service errors to HTTP responses with the human-readable
// error field every client surfaces to the user.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err.Error())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// profileJSON renders the canonical user shape: camelCase field names and a
// structured address object.
func profileJSON(p *models.Profile) gin.H {
	dob := ""
	if !p.Details.DateOfBirth.IsZero() {
		dob = p.Details.DateOfBirth.Format(dateLayout)
	}
	return gin.H{
		"id":    p.User.ID,
		"email": p.User.Email,
		"role":  p.User.Role,
		"details": gin.H{
			"firstName":     p.Details.FirstName,
			"lastName":      p.Details.LastName,
			"dateOfBirth":   dob,
			"phone":         p.Details.Phone,
			"address":       p.Details.Address,
			"photoPath":     p.Details.PhotoPath,
			"thumbnailPath": p.Details.ThumbnailPath,
			"createdAt":     p.Details.CreatedAt,
			"updatedAt":     p.Details.UpdatedAt,
		},
	}
}
