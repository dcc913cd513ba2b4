package compressors

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/unidoc/unipdf/v3/common"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/model/optimize"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// LicenseEnvVar переменная окружения с ключом UniPDF
const LicenseEnvVar = "UNIDOC_LICENSE_API_KEY"

// Ключ UniPDF устанавливается на процесс один раз
var (
	licenseOnce sync.Once
	licenseErr  error
)

// UniPDFOptimizer финальный проход оптимизации через UniPDF
type UniPDFOptimizer struct {
	licenseKey string
	logger     repositories.Logger
}

// NewUniPDFOptimizer создает оптимизатор. Пустой ключ берется из UNIDOC_LICENSE_API_KEY.
func NewUniPDFOptimizer(licenseKey string, logger repositories.Logger) (*UniPDFOptimizer, error) {
	if licenseKey == "" {
		licenseKey = os.Getenv(LicenseEnvVar)
	}
	if licenseKey == "" {
		return nil, entities.ErrLicenseMissing
	}

	licenseOnce.Do(func() {
		common.SetLogger(newUniPDFLogger(logger))
		licenseErr = license.SetMeteredKey(licenseKey)
	})
	if licenseErr != nil {
		return nil, fmt.Errorf("ошибка установки лицензии UniPDF: %w", licenseErr)
	}

	return &UniPDFOptimizer{licenseKey: licenseKey, logger: logger}, nil
}

// Name имя прохода
func (u *UniPDFOptimizer) Name() string {
	return "unipdf"
}

// Optimize пересобирает документ с оптимизатором UniPDF
func (u *UniPDFOptimizer) Optimize(data []byte, profile entities.CompressionProfile) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("паника UniPDF: %v", r)
		}
	}()

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия документа: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения количества страниц: %w", err)
	}

	writer := model.NewPdfWriter()
	writer.SetOptimizer(optimize.New(uniPDFOptions(profile)))

	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения страницы %d: %w", i, err)
		}
		if err := writer.AddPage(page); err != nil {
			return nil, fmt.Errorf("ошибка добавления страницы %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf); err != nil {
		return nil, fmt.Errorf("ошибка записи документа: %w", err)
	}
	return buf.Bytes(), nil
}

// uniPDFOptions параметры оптимизатора для профиля
func uniPDFOptions(profile entities.CompressionProfile) optimize.Options {
	ppi := 150.0
	if profile.Aggressive {
		ppi = 150 * profile.PageScale
	}
	return optimize.Options{
		CombineDuplicateDirectObjects:   true,
		CombineIdenticalIndirectObjects: true,
		CombineDuplicateStreams:         true,
		CompressStreams:                 true,
		UseObjectStreams:                true,
		ImageQuality:                    profile.ImageQuality,
		ImageUpperPPI:                   ppi,
	}
}

// uniPDFLogger направляет сообщения UniPDF в логгер приложения
type uniPDFLogger struct {
	logger repositories.Logger
}

func newUniPDFLogger(logger repositories.Logger) common.Logger {
	if logger == nil {
		return common.DummyLogger{}
	}
	return &uniPDFLogger{logger: logger}
}

func (l *uniPDFLogger) Error(format string, args ...interface{}) {
	l.logger.Error("unipdf: "+format, args...)
}

func (l *uniPDFLogger) Warning(format string, args ...interface{}) {
	l.logger.Debug("unipdf: "+format, args...)
}

func (l *uniPDFLogger) Notice(format string, args ...interface{}) {
	l.logger.Debug("unipdf: "+format, args...)
}

func (l *uniPDFLogger) Info(format string, args ...interface{}) {}

func (l *uniPDFLogger) Debug(format string, args ...interface{}) {}

func (l *uniPDFLogger) Trace(format string, args ...interface{}) {}

func (l *uniPDFLogger) IsLogLevel(level common.LogLevel) bool {
	return level <= common.LogLevelWarning
}
