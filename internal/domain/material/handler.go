package material

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmnex/internal/ingest"
	"farmnex/internal/pkg/response"
	"farmnex/internal/storage"
)

// Handler exposes the training-material API. The upload endpoint is the HTTP
// face of the batch orchestrator; everything else is catalog CRUD.
type Handler struct {
	service *Service
	files   *storage.Local
	onBatch func(batchID string) ingest.ProgressFunc // progress fan-out, may be nil
}

func NewHandler(service *Service, files *storage.Local, onBatch func(string) ingest.ProgressFunc) *Handler {
	return &Handler{service: service, files: files, onBatch: onBatch}
}

// List handles GET /materials with type/category filters, search and paging.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	out, err := h.service.List(c.Request.Context(), ListFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list materials")
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) Get(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrMaterialNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "training material not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load material")
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	m, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	m, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "training material deleted"})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute statistics")
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Upload handles POST /materials/upload: one or more files under "files",
// shared catalog fields, and optional declared video hints. A client that
// wants live progress passes its own batch_id and subscribes to the progress
// feed before submitting.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "multipart form required")
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "no files provided")
		return
	}

	hints := videoHintsFromForm(c)
	subs := make([]*ingest.FileSubmission, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		sub, err := submissionFromHeader(fh, hints)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		subs = append(subs, sub)
	}

	batchID := strings.TrimSpace(c.PostForm("batch_id"))
	if batchID == "" {
		batchID = uuid.New().String()
	}
	var onProgress ingest.ProgressFunc
	if h.onBatch != nil {
		onProgress = h.onBatch(batchID)
	}

	in := BatchInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Category:    c.PostForm("category"),
		Tags:        splitTags(c.PostForm("tags")),
		Difficulty:  c.PostForm("difficulty"),
		CreatedBy:   c.PostForm("created_by"),
	}

	outcome, err := h.service.UploadBatch(c.Request.Context(), batchID, in, subs, onProgress)
	if err != nil && outcome == nil {
		h.writeServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if outcome.Succeeded == 0 {
		status = http.StatusUnprocessableEntity
	} else if outcome.Failed > 0 {
		status = http.StatusMultiStatus
	}
	response.Success(c, status, outcome)
}

// Download handles GET /materials/:id/download and returns a signed link.
func (h *Handler) Download(c *gin.Context) {
	out, err := h.service.DownloadLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ServeFile handles GET /files/*path: verifies the signed token and streams
// the object.
func (h *Handler) ServeFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "download token required")
		return
	}
	if err := h.files.VerifyToken(token, path); err != nil {
		response.Error(c, http.StatusForbidden, "AUTH_INVALID", "invalid or expired download token")
		return
	}

	src, info, err := h.files.Get(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "object not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to open object")
		return
	}
	defer src.Close()

	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, src)
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMaterialNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "training material not found")
	case errors.Is(err, ErrNoFile):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "material has no stored file")
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrEmptyBatch):
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// submissionFromHeader adapts one multipart part into a pipeline submission.
// The opener returns a fresh reader per call; multipart files support that.
func submissionFromHeader(fh *multipart.FileHeader, hints *ingest.VideoHints) (*ingest.FileSubmission, error) {
	mimeType := fh.Header.Get("Content-Type")
	sub, err := ingest.NewSubmission(fh.Filename, mimeType, uint64(fh.Size), func() (io.ReadCloser, error) {
		return fh.Open()
	})
	if err != nil {
		return nil, err
	}
	if hints != nil && strings.HasPrefix(strings.ToLower(mimeType), "video/") {
		sub.Video = hints
	}
	return sub, nil
}

func videoHintsFromForm(c *gin.Context) *ingest.VideoHints {
	duration, errD := strconv.ParseFloat(c.PostForm("duration_seconds"), 64)
	width, errW := strconv.Atoi(c.PostForm("width"))
	height, errH := strconv.Atoi(c.PostForm("height"))
	if errD != nil && errW != nil && errH != nil {
		return nil
	}
	hints := &ingest.VideoHints{}
	if errD == nil {
		hints.DurationSeconds = duration
	}
	if errW == nil {
		hints.Width = width
	}
	if errH == nil {
		hints.Height = height
	}
	return hints
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
