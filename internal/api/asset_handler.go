package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/repository"
	"femiforge/media-api/internal/service"
	"femiforge/media-api/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetHandler serves one asset kind; the same handler code backs both the
// /photos and /videos route groups.
type AssetHandler struct {
	assetService service.AssetService
	kind         domain.AssetKind
}

// NewAssetHandler creates a handler bound to one asset kind.
func NewAssetHandler(assetService service.AssetService, kind domain.AssetKind) *AssetHandler {
	return &AssetHandler{assetService: assetService, kind: kind}
}

// AssetResponse is the public projection of an asset. EmbedURL is derived
// on read for YouTube videos and never stored.
type AssetResponse struct {
	domain.Asset
	EmbedURL string `json:"embedUrl,omitempty"`
}

func toAssetResponse(a *domain.Asset) AssetResponse {
	return AssetResponse{Asset: *a, EmbedURL: a.EmbedURL()}
}

// List handles GET /. Query: category, featured, type (videos only),
// page, limit.
func (h *AssetHandler) List(c *gin.Context) {
	var filter repository.AssetFilter

	if raw := c.Query("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.Category = &category
	}
	if h.kind == domain.KindVideo {
		if raw := c.Query("type"); raw != "" {
			videoType, err := domain.ParseVideoType(raw)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, err.Error())
				return
			}
			filter.VideoType = &videoType
		}
	}
	if c.Query("featured") == "true" {
		featured := true
		filter.Featured = &featured
	}

	page := repository.Pagination{
		Page:     atoiOrZero(c.Query("page")),
		PageSize: atoiOrZero(c.Query("limit")),
	}

	result, err := h.assetService.List(c.Request.Context(), h.kind, filter, page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	data := make([]AssetResponse, 0, len(result.Items))
	for i := range result.Items {
		data = append(data, toAssetResponse(&result.Items[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(data),
		"total":       result.Total,
		"pages":       result.Pages(),
		"currentPage": result.Page,
		"data":        data,
	})
}

// Get handles GET /:id. Every successful fetch records one view.
func (h *AssetHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid asset ID")
		return
	}

	asset, err := h.assetService.Get(c.Request.Context(), h.kind, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": toAssetResponse(asset)})
}

// Upload handles POST /. Multipart form: the common fields plus "image" for
// photos, "thumbnail" and optionally "video" for videos.
func (h *AssetHandler) Upload(c *gin.Context) {
	callerID, err := getCallerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Could not identify the caller")
		return
	}

	input := service.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
	}
	if raw := c.PostForm("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		input.Date = &date
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	switch h.kind {
	case domain.KindPhoto:
		payload, file, err := formPayload(c, "image")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		if file != nil {
			closers = append(closers, file)
		}
		input.Image = payload

	case domain.KindVideo:
		input.VideoType = c.PostForm("videoType")
		input.VideoID = c.PostForm("videoId")
		input.Duration = atoiOrZero(c.PostForm("duration"))

		for _, slot := range []struct {
			field  string
			target **service.Payload
		}{
			{"thumbnail", &input.Thumbnail},
			{"video", &input.Video},
		} {
			payload, file, err := formPayload(c, slot.field)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, err.Error())
				return
			}
			if file != nil {
				closers = append(closers, file)
			}
			*slot.target = payload
		}
	}

	asset, err := h.assetService.Upload(c.Request.Context(), h.kind, input, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s uploaded successfully", titleCase(h.kind)),
		"data":    toAssetResponse(asset),
	})
}

// Update handles PUT /:id. Only the form fields that are present end up in
// the patch; "featured=false" is honored rather than treated as omitted.
func (h *AssetHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid asset ID")
		return
	}
	callerID, err := getCallerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Could not identify the caller")
		return
	}
	callerRole, err := getCallerRole(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Could not identify the caller")
		return
	}

	var patch service.UpdateInput
	if v, ok := c.GetPostForm("title"); ok {
		patch.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		patch.Description = &v
	}
	if v, ok := c.GetPostForm("category"); ok {
		patch.Category = &v
	}
	if v, ok := c.GetPostForm("date"); ok && v != "" {
		date, err := parseDate(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.Date = &date
	}
	if v, ok := c.GetPostForm("featured"); ok {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "featured must be true or false")
			return
		}
		patch.Featured = &featured
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	switch h.kind {
	case domain.KindPhoto:
		payload, file, err := formPayload(c, "image")
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		if file != nil {
			closers = append(closers, file)
		}
		patch.Image = payload

	case domain.KindVideo:
		if v, ok := c.GetPostForm("videoType"); ok {
			patch.VideoType = &v
		}
		if v, ok := c.GetPostForm("videoId"); ok {
			patch.VideoID = &v
		}
		if v, ok := c.GetPostForm("duration"); ok {
			duration, err := strconv.Atoi(v)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "duration must be a number of seconds")
				return
			}
			patch.Duration = &duration
		}

		for _, slot := range []struct {
			field  string
			target **service.Payload
		}{
			{"thumbnail", &patch.Thumbnail},
			{"video", &patch.Video},
		} {
			payload, file, err := formPayload(c, slot.field)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, err.Error())
				return
			}
			if file != nil {
				closers = append(closers, file)
			}
			*slot.target = payload
		}
	}

	asset, err := h.assetService.Update(c.Request.Context(), h.kind, id, callerID, callerRole, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s updated successfully", titleCase(h.kind)),
		"data":    toAssetResponse(asset),
	})
}

// Delete handles DELETE /:id.
func (h *AssetHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid asset ID")
		return
	}
	callerID, err := getCallerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Could not identify the caller")
		return
	}
	callerRole, err := getCallerRole(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Could not identify the caller")
		return
	}

	if err := h.assetService.Delete(c.Request.Context(), h.kind, id, callerID, callerRole); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s deleted successfully", titleCase(h.kind)),
	})
}

// Stats handles GET /stats/totals (admin only, enforced by the route).
func (h *AssetHandler) Stats(c *gin.Context) {
	stats, err := h.assetService.Stats(c.Request.Context(), h.kind)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func (h *AssetHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssetNotFound):
		abortWithError(c, http.StatusNotFound, fmt.Sprintf("%s not found", titleCase(h.kind)))
	case errors.Is(err, service.ErrAccessDenied):
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Not authorized to modify this %s", h.kind))
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrWriteFailed):
		abortWithError(c, http.StatusInternalServerError, "Failed to store the uploaded file")
	default:
		abortWithError(c, http.StatusInternalServerError, fmt.Sprintf("Server error while processing the %s", h.kind))
	}
}

// --- form helpers ---

// formPayload extracts one optional multipart file. A missing file yields a
// nil payload; required-payload checks belong to the service.
func formPayload(c *gin.Context, field string) (*service.Payload, multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("invalid %s upload: %v", field, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("could not read %s upload: %v", field, err)
	}

	return &service.Payload{
		FieldName:   field,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	}, file, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339 or YYYY-MM-DD", raw)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func titleCase(kind domain.AssetKind) string {
	if kind == domain.KindVideo {
		return "Video"
	}
	return "Photo"
}
