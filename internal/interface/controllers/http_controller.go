package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// Compressor сжимает один файл и подбирает профиль по размеру
type Compressor interface {
	Execute(ctx context.Context, req entities.CompressionRequest) (*entities.CompressionResult, error)
	Profile(sizeBytes int64, targetKB float64) entities.CompressionProfile
}

// Заголовки ответа со сводкой сжатия
const (
	HeaderOriginalKB    = "X-Compression-Original-KB"
	HeaderCompressedKB  = "X-Compression-Compressed-KB"
	HeaderRatio         = "X-Compression-Ratio"
	HeaderTier          = "X-Compression-Tier"
	HeaderIterations    = "X-Compression-Iterations"
	HeaderRefineState   = "X-Compression-Refine-State"
	HeaderTargetReached = "X-Compression-Target-Reached"
)

const defaultHistoryLimit = 50

// HTTPController обслуживает HTTP API сжатия
type HTTPController struct {
	compressor     Compressor
	history        repositories.HistoryRepository
	logger         repositories.Logger
	uploadDir      string
	maxUploadBytes int64
	allowedOrigins []string
}

// NewHTTPController создает HTTP контроллер
func NewHTTPController(
	compressor Compressor,
	history repositories.HistoryRepository,
	logger repositories.Logger,
	cfg entities.ServerConfig,
) *HTTPController {
	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 100
	}

	return &HTTPController{
		compressor:     compressor,
		history:        history,
		logger:         logger,
		uploadDir:      uploadDir,
		maxUploadBytes: int64(maxMB) << 20,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// Router создает маршрутизатор со всеми маршрутами и CORS
func (c *HTTPController) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", c.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/compress", c.Compress).Methods(http.MethodPost)
	api.HandleFunc("/profile", c.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/history", c.GetHistory).Methods(http.MethodGet)

	origins := c.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			HeaderOriginalKB,
			HeaderCompressedKB,
			HeaderRatio,
			HeaderTier,
			HeaderIterations,
			HeaderRefineState,
			HeaderTargetReached,
		},
		MaxAge: 300,
	}).Handler(router)
}

// Health проверка доступности сервиса
func (c *HTTPController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdfshrink"})
}

// Compress принимает PDF в поле file и возвращает сжатый документ
func (c *HTTPController) Compress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("файл больше %d MB", c.maxUploadBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "поле file обязательно")
		return
	}
	defer file.Close()

	originalName := strings.TrimSpace(filepath.Base(header.Filename))
	if !strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		writeError(w, http.StatusBadRequest, "поддерживаются только PDF файлы")
		return
	}

	targetKB, err := parseFloatParam(r.FormValue("target_kb"))
	if err != nil || targetKB < 0 {
		writeError(w, http.StatusBadRequest, "target_kb должен быть неотрицательным числом")
		return
	}

	jobDir := filepath.Join(c.uploadDir, "pdfshrink-"+uuid.NewString())
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		c.logError("Не удалось создать рабочую директорию: %v", err)
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}
	defer os.RemoveAll(jobDir)

	inputPath := filepath.Join(jobDir, "input.pdf")
	if err := saveUpload(inputPath, file); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("файл больше %d MB", c.maxUploadBytes>>20))
			return
		}
		c.logError("Не удалось сохранить загрузку %s: %v", originalName, err)
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	result, err := c.compressor.Execute(r.Context(), entities.CompressionRequest{
		InputPath:    inputPath,
		OutputPath:   filepath.Join(jobDir, "output.pdf"),
		TargetSizeKB: targetKB,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			c.logError("Сжатие %s не удалось: %v", originalName, err)
		}
		writeError(w, status, err.Error())
		return
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		c.logError("Не удалось прочитать результат %s: %v", result.OutputPath, err)
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_compressed.pdf"))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(HeaderOriginalKB, strconv.FormatFloat(result.OriginalSizeKB, 'f', 2, 64))
	h.Set(HeaderCompressedKB, strconv.FormatFloat(result.CompressedSizeKB, 'f', 2, 64))
	h.Set(HeaderRatio, strconv.Itoa(result.CompressionRatioPercent))
	h.Set(HeaderTier, string(result.Profile.Tier))
	h.Set(HeaderIterations, strconv.Itoa(result.Iterations))
	h.Set(HeaderRefineState, result.RefineStateName())
	h.Set(HeaderTargetReached, strconv.FormatBool(result.TargetReached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetProfile возвращает профиль сжатия для размера файла в байтах
func (c *HTTPController) GetProfile(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if err != nil || size < 0 {
		writeError(w, http.StatusBadRequest, "size должен быть неотрицательным целым числом байт")
		return
	}

	targetKB, err := parseFloatParam(r.URL.Query().Get("target_kb"))
	if err != nil || targetKB < 0 {
		writeError(w, http.StatusBadRequest, "target_kb должен быть неотрицательным числом")
		return
	}

	writeJSON(w, http.StatusOK, c.compressor.Profile(size, targetKB))
}

// GetHistory возвращает последние записи журнала сжатий
func (c *HTTPController) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit должен быть положительным числом")
			return
		}
		limit = n
	}

	records := []entities.HistoryRecord{}
	if c.history != nil {
		recent, err := c.history.Recent(r.Context(), limit)
		if err != nil {
			c.logError("Не удалось прочитать журнал: %v", err)
			writeError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
			return
		}
		if recent != nil {
			records = recent
		}
	}

	writeJSON(w, http.StatusOK, records)
}

func (c *HTTPController) logError(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Error(format, args...)
	}
}

// statusFor сопоставляет доменную ошибку с HTTP статусом
func statusFor(err error) int {
	var loadErr *entities.LoadError
	switch {
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrInvalidRequest),
		errors.Is(err, entities.ErrInvalidTargetSize),
		errors.Is(err, entities.ErrInvalidPageScale),
		errors.Is(err, entities.ErrInvalidImageQuality):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseFloatParam разбирает необязательный числовой параметр. NaN и Inf отклоняются.
func parseFloatParam(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("недопустимое значение %q", raw)
	}
	return v, nil
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
