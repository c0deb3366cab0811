package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/booking"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	BookingSvc booking.BookingService
	Logger     *zap.Logger
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.Create(c.Request.Context(), a, req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	b, err := h.BookingSvc.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// List handles GET /api/bookings?role&status.
func (h *BookingHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.BookingSvc.List(c.Request.Context(), a, models.Role(c.Query("role")), models.BookingStatus(c.Query("status")))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

// UpdateStatus handles PUT /api/bookings/:id with {status: accepted|rejected}.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.UpdateStatus(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Complete handles POST /api/bookings/:id/complete as multipart: evidence[], captions[], notes.
func (h *BookingHandler) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	notes, files, ok := h.readEvidence(c)
	if !ok {
		return
	}
	b, err := h.BookingSvc.Complete(c.Request.Context(), a, c.Param("id"), notes, files)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AddEvidence handles POST /api/bookings/:id/evidence while the client has not answered.
func (h *BookingHandler) AddEvidence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	_, files, ok := h.readEvidence(c)
	if !ok {
		return
	}
	b, err := h.BookingSvc.AddEvidence(c.Request.Context(), a, c.Param("id"), files)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Confirm handles PUT /api/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.ConfirmRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.Confirm(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ResolveDispute handles PUT /api/bookings/:id/resolve-dispute (admin).
func (h *BookingHandler) ResolveDispute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.ResolveDisputeRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.ResolveDispute(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Reschedule handles PUT /api/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.RescheduleRequest
	if !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.Reschedule(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Cancel handles PUT /api/bookings/:id/cancel. The body is optional.
func (h *BookingHandler) Cancel(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CancelRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	b, err := h.BookingSvc.Cancel(c.Request.Context(), a, c.Param("id"), req.Reason)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /api/bookings/:id.
func (h *BookingHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.BookingSvc.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		utils.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// readEvidence pulls notes and evidence[] (with positional captions[]) out of a multipart form.
func (h *BookingHandler) readEvidence(c *gin.Context) (string, []models.EvidenceUpload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return c.PostForm("notes"), nil, true
		}
		utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "invalid multipart form: %v", err))
		return "", nil, false
	}
	notes := ""
	if v := form.Value["notes"]; len(v) > 0 {
		notes = v[0]
	}
	captions := form.Value["captions[]"]
	if len(captions) == 0 {
		captions = form.Value["captions"]
	}
	headers := form.File["evidence[]"]
	if len(headers) == 0 {
		headers = form.File["evidence"]
	}

	files := make([]models.EvidenceUpload, 0, len(headers))
	for i, fh := range headers {
		if fh.Size > utils.MaxEvidenceBytes {
			utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "%s exceeds the %d MB limit", fh.Filename, utils.MaxEvidenceBytes>>20))
			return "", nil, false
		}
		data, err := readFile(fh)
		if err != nil {
			h.Logger.Error("Could not read evidence upload", zap.String("file", fh.Filename), zap.Error(err))
			utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "could not read %s", fh.Filename))
			return "", nil, false
		}
		up := models.EvidenceUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}
		if i < len(captions) {
			up.Caption = captions[i]
		}
		files = append(files, up)
	}
	return notes, files, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
