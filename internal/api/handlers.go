package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docanalyze/internal/analysis"
	"docanalyze/internal/auth"
	"docanalyze/internal/cache"
	"docanalyze/internal/extract"
	"docanalyze/internal/logger"
	"docanalyze/internal/models"
	"docanalyze/internal/store"
)

// Analyzer turns document text into model output.
type Analyzer interface {
	Analyze(ctx context.Context, texts []string, instruction string) (string, error)
	ExtractMetadata(ctx context.Context, text string) (string, error)
}

const defaultMaxUploadBytes = 10 << 20 // 10 MB

// Handler wires HTTP routes to the analysis pipeline and user store.
type Handler struct {
	store          *store.Store
	auth           *auth.Service
	analyzer       Analyzer
	cache          *cache.AnalysisCache
	maxUploadBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(st *store.Store, authService *auth.Service, analyzer Analyzer, resultCache *cache.AnalysisCache, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		store:          st,
		auth:           authService,
		analyzer:       analyzer,
		cache:          resultCache,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/users/register", h.registerUser)
	api.POST("/users/login", h.loginUser)

	authMW := h.auth.Middleware()
	csrfMW := h.auth.CSRFMiddleware()

	// Analysis works for anonymous callers; a valid token only adds
	// history persistence.
	api.POST("/analyze", h.auth.OptionalMiddleware(), h.analyze)

	api.POST("/users/logout", authMW, csrfMW, h.logoutUser)
	api.POST("/metadata", authMW, csrfMW, h.extractMetadata)
	api.GET("/analysis/:id", authMW, h.getAnalysis)
	api.GET("/history", authMW, h.getHistory)
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

// User create&login interface
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.store.RegisterUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.store.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"auth_token": authToken,
	})
}

func (h *Handler) logoutUser(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		_ = h.auth.RevokeToken(c.Request.Context(), authToken)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) analyze(c *gin.Context) {
	files, customPrompt, ok := h.readAnalyzeForm(c)
	if !ok {
		return
	}

	docs, err := extract.ExtractAll(c.Request.Context(), files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	texts := make([]string, len(docs))
	fileInfo := make([]models.FileInfo, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
		fileInfo[i] = models.FileInfo{
			Filename:       files[i].Name,
			CharacterCount: doc.CharCount,
			PageCount:      doc.PageCount,
		}
	}

	raw, err := h.analyzer.Analyze(c.Request.Context(), texts, customPrompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := analysis.Parse(raw)
	result := &models.AnalysisResult{
		Sections:         outcome.Sections,
		FileInfo:         fileInfo,
		CustomPromptUsed: strings.TrimSpace(customPrompt) != "",
	}

	if userID, authed := auth.UserIDFromContext(c); authed && userID > 0 {
		h.persistAnalysis(c, userID, files, result, customPrompt)
	}
	c.JSON(http.StatusOK, result)
}

// readAnalyzeForm validates the multipart request and loads every uploaded
// file into memory. It writes the error response itself on failure.
func (h *Handler) readAnalyzeForm(c *gin.Context) ([]extract.UploadedFile, string, bool) {
	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart/form-data request"})
		return nil, "", false
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart/form-data request"})
		return nil, "", false
	}
	headers := form.File["pdfFiles"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return nil, "", false
	}

	files := make([]extract.UploadedFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > h.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large: " + header.Filename})
			return nil, "", false
		}
		data, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + header.Filename})
			return nil, "", false
		}
		files = append(files, extract.UploadedFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        data,
		})
	}

	customPrompt := ""
	if vals := form.Value["customPrompt"]; len(vals) > 0 {
		customPrompt = vals[0]
	}
	return files, customPrompt, true
}

// persistAnalysis records the result against the user's history. Failures
// are logged and swallowed; the caller still gets the analysis.
func (h *Handler) persistAnalysis(c *gin.Context, userID int64, files []extract.UploadedFile, result *models.AnalysisResult, customPrompt string) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	id, err := h.store.SaveAnalysis(c.Request.Context(), userID, strings.Join(names, ", "), result, customPrompt)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("failed to save analysis")
		return
	}
	h.cache.Put(id, result)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if result, ok := h.cache.Get(id); ok {
		c.JSON(http.StatusOK, result)
		return
	}
	result, err := h.store.GetAnalysis(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.cache.Put(id, result)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getHistory(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	history, err := h.store.ListHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

type metadataRequest struct {
	Text string `json:"text"`
}

func (h *Handler) extractMetadata(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	metadata, err := h.analyzer.ExtractMetadata(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metadata": metadata})
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
