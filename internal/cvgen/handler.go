package cvgen

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cvgen-backend/internal/auditlog"
	"cvgen-backend/internal/shared/server/middleware"
	"cvgen-backend/internal/shared/server/respond"
	"cvgen-backend/internal/shared/telemetry"
	"cvgen-backend/internal/shared/util"
)

const (
	defaultMaxUpload = 25 << 20 // 25MB

	msgUnsupportedAudio    = "Format audio non supporté"
	msgUnsupportedDocument = "Format de document non supporté"
	msgTranscriptionFailed = "Erreur lors de la transcription"
	msgServerError         = "Erreur serveur"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service

	// MaxUploadBytes caps multipart bodies; zero means 25MB.
	MaxUploadBytes int64
	// ExposeErrorDetails appends the underlying cause to 500 messages.
	ExposeErrorDetails bool
	// TempDir holds uploaded audio while it is transcribed; empty means the
	// system temp dir.
	TempDir string
	// ServeGenerations registers GET /cv and GET /cv/:id/download. Both are
	// unauthenticated, so they stay off unless enabled.
	ServeGenerations bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, exposeErrorDetails bool) *Handler {
	return &Handler{
		Svc:                svc,
		MaxUploadBytes:     maxUploadBytes,
		ExposeErrorDetails: exposeErrorDetails,
	}
}

// RegisterRoutes attaches the CV routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/transcribe_audio", h.transcribeAudio)
	r.POST("/generate_cv_from_text", h.generateFromText)
	r.POST("/generate_cv_from_audio", h.generateFromAudio)
	r.POST("/generate_cv_from_document", h.generateFromDocument)
	if h.ServeGenerations {
		r.GET("/cv", h.list)
		r.GET("/cv/:id/download", h.download)
	}
}

// generationItem is the public listing entry; the email is hashed.
type generationItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	EmailHash string    `json:"email_hash"`
	Source    string    `json:"source"`
	Path      string    `json:"cv_path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type generateTextRequest struct {
	Name    string `form:"name" binding:"required"`
	Email   string `form:"email" binding:"required"`
	Message string `form:"message" binding:"required"`
}

type identityRequest struct {
	Name  string `form:"name" binding:"required"`
	Email string `form:"email" binding:"required"`
}

func (h *Handler) transcribeAudio(c *gin.Context) {
	h.limitBody(c)

	fileHeader, ok := h.audioUpload(c)
	if !ok {
		return
	}

	path, err := h.saveTemp(fileHeader)
	if err != nil {
		h.serverError(c, msgServerError, err)
		return
	}
	defer removeTemp(path)

	transcript, err := h.Svc.TranscribeAudio(c.Request.Context(), path)
	if err != nil {
		h.serverError(c, msgTranscriptionFailed, err)
		return
	}

	respond.OK(c, gin.H{"transcript": transcript})
}

func (h *Handler) generateFromText(c *gin.Context) {
	h.limitBody(c)

	var req generateTextRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name, email et message sont requis", nil)
		return
	}
	c.Set(middleware.SourceKey, auditlog.SourceFromText)

	res, err := h.Svc.GenerateFromText(c.Request.Context(), GenerateInput{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		Source:    auditlog.SourceFromText,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		h.serverError(c, msgServerError, err)
		return
	}

	h.respondGenerated(c, res)
}

func (h *Handler) generateFromAudio(c *gin.Context) {
	h.limitBody(c)
	c.Set(middleware.SourceKey, auditlog.SourceFromAudio)

	var req identityRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name et email sont requis", nil)
		return
	}
	fileHeader, ok := h.audioUpload(c)
	if !ok {
		return
	}

	path, err := h.saveTemp(fileHeader)
	if err != nil {
		h.serverError(c, msgServerError, err)
		return
	}
	defer removeTemp(path)

	res, err := h.Svc.GenerateFromAudio(c.Request.Context(), path, GenerateInput{
		Name:      req.Name,
		Email:     req.Email,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		if errors.Is(err, ErrTranscription) {
			h.serverError(c, msgTranscriptionFailed, err)
			return
		}
		h.serverError(c, msgServerError, err)
		return
	}

	h.respondGenerated(c, res)
}

func (h *Handler) generateFromDocument(c *gin.Context) {
	h.limitBody(c)
	c.Set(middleware.SourceKey, auditlog.SourceFromDocument)

	var req identityRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name et email sont requis", nil)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.uploadError(c, "file", err)
		return
	}
	data, err := readUpload(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	// The name only drives type sniffing; a suspicious one is dropped.
	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		fileName = ""
	}

	res, err := h.Svc.GenerateFromDocument(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"), fileName, GenerateInput{
		Name:      req.Name,
		Email:     req.Email,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		if errors.Is(err, ErrUnsupportedDocument) {
			respond.Error(c, http.StatusBadRequest, ErrorCode(err), h.message(msgUnsupportedDocument, err), nil)
			return
		}
		h.serverError(c, msgServerError, err)
		return
	}

	h.respondGenerated(c, res)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	gens, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list generations", nil)
		return
	}
	items := make([]generationItem, 0, len(gens))
	for _, g := range gens {
		items = append(items, generationItem{
			ID:        g.ID,
			Name:      g.Name,
			EmailHash: util.HashKey(g.Email),
			Source:    g.Source,
			Path:      g.Path,
			SizeBytes: g.SizeBytes,
			CreatedAt: g.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	gen, body, size, err := h.Svc.Open(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "CV introuvable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open document", nil)
		return
	}
	defer body.Close()

	c.Set(middleware.GenerationIDKey, gen.ID)
	respond.Attachment(c, filepath.Base(gen.Path), docxContentType, size, body)
}

func (h *Handler) respondGenerated(c *gin.Context, res Result) {
	c.Set(middleware.GenerationIDKey, res.ID)
	payload := gin.H{
		"cv_json": res.CV,
		"cv_path": res.Path,
		"cv_id":   res.ID,
	}
	if res.Transcript != "" {
		payload["transcript"] = res.Transcript
	}
	respond.OK(c, payload)
}

// audioUpload returns the "audio" part when its declared type is supported.
// It answers the request itself otherwise.
func (h *Handler) audioUpload(c *gin.Context) (*multipart.FileHeader, bool) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		h.uploadError(c, "audio", err)
		return nil, false
	}
	if !IsSupportedAudioType(fileHeader.Header.Get("Content-Type")) {
		respond.Error(c, http.StatusBadRequest, ErrorCode(ErrUnsupportedMediaType), msgUnsupportedAudio, gin.H{
			"contentType": fileHeader.Header.Get("Content-Type"),
			"supported":   SupportedAudioTypes(),
		})
		return nil, false
	}
	return fileHeader, true
}

func (h *Handler) uploadError(c *gin.Context, field string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "fichier trop volumineux", nil)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", field+" is required", nil)
}

func (h *Handler) serverError(c *gin.Context, prefix string, err error) {
	respond.Error(c, http.StatusInternalServerError, ErrorCode(err), h.message(prefix, err), nil)
}

func (h *Handler) message(prefix string, err error) string {
	if !h.ExposeErrorDetails || err == nil {
		return prefix
	}
	return prefix + " : " + err.Error()
}

func (h *Handler) limitBody(c *gin.Context) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

// saveTemp copies the upload to a temp file that keeps the original
// extension. The caller removes it.
func (h *Handler) saveTemp(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(h.TempDir, "cvgen-audio-*"+tempSuffix(fileHeader.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		removeTemp(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeTemp(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

func tempSuffix(fileName string) string {
	ext := filepath.Ext(filepath.Base(fileName))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		telemetry.Error("cv.temp_cleanup_failed", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
