package usecases_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

var errBrokenPage = errors.New("поврежденный поток содержимого")

// fakeLoader строит fakeDoc по длине байт и запоминает коэффициенты
// масштабирования каждой загрузки
type fakeLoader struct {
	mu sync.Mutex

	pages     int
	failPage  int
	panicPage int
	// Множитель размера при сериализации поверх масштаба
	growth float64
	// Размер не зависит от масштаба
	ignoreScale bool
	// Load падает на вызове с этим номером (с 1), 0 - никогда
	failLoadAt    int
	failSerialize bool

	loads  int
	scales []float64
	docs   []*fakeDoc
}

func newFakeLoader(pages int) *fakeLoader {
	return &fakeLoader{pages: pages, growth: 1}
}

func (l *fakeLoader) Name() string { return "fake" }

func (l *fakeLoader) Load(data []byte) (repositories.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loads++
	if l.failLoadAt > 0 && l.loads == l.failLoadAt {
		return nil, fmt.Errorf("загрузка %d не удалась", l.loads)
	}
	if bytes.HasPrefix(data, []byte("garbage")) {
		return nil, entities.ErrInvalidFileFormat
	}

	doc := &fakeDoc{
		loader: l,
		size:   len(data),
		pages:  l.pages,
		scale:  1,
		info: map[string]string{
			repositories.InfoTitle:        "Отчет",
			repositories.InfoAuthor:       "Иванов",
			repositories.InfoSubject:      "Квартал",
			repositories.InfoKeywords:     "pdf",
			repositories.InfoCreator:      "Writer",
			repositories.InfoProducer:     "Office",
			repositories.InfoCreationDate: "D:20240101120000Z",
			repositories.InfoModDate:      "D:20240102120000Z",
		},
		xmp:       true,
		failInfos: map[string]bool{},
	}
	l.docs = append(l.docs, doc)
	return doc, nil
}

func (l *fakeLoader) recordScale(f float64) {
	l.mu.Lock()
	l.scales = append(l.scales, f)
	l.mu.Unlock()
}

// fakeDoc документ в памяти
type fakeDoc struct {
	loader *fakeLoader

	size      int
	pages     int
	scale     float64
	scaled    []int
	stripped  int
	info      map[string]string
	xmp       bool
	failInfos map[string]bool
	images    int
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) Info(key string) (string, bool) {
	v, ok := d.info[key]
	return v, ok
}

func (d *fakeDoc) SetInfo(key, value string) error {
	if d.failInfos[key] {
		return fmt.Errorf("нестандартный объект %s", key)
	}
	d.info[key] = value
	return nil
}

func (d *fakeDoc) StripXMP() error {
	d.xmp = false
	return nil
}

func (d *fakeDoc) PageSize(page int) (float64, float64, error) {
	if page == d.loader.panicPage {
		panic("разрушенная страница")
	}
	if page == d.loader.failPage {
		return 0, 0, errBrokenPage
	}
	return 612, 792, nil
}

func (d *fakeDoc) ScalePage(page int, factor float64) error {
	if page == 1 {
		d.loader.recordScale(factor)
	}
	d.scale = factor
	d.scaled = append(d.scaled, page)
	return nil
}

func (d *fakeDoc) StripStructure(page int) error {
	d.stripped++
	return nil
}

func (d *fakeDoc) TransformImages(fn repositories.ImageTransform) (int, error) {
	d.images++
	return 0, nil
}

func (d *fakeDoc) Serialize() ([]byte, error) {
	if d.loader.failSerialize {
		return nil, errors.New("ошибка записи xref")
	}
	factor := d.scale
	if d.loader.ignoreScale {
		factor = 1
	}
	n := int(float64(d.size) * factor * d.loader.growth)
	if n < 1 {
		n = 1
	}
	return bytes.Repeat([]byte{'x'}, n), nil
}

// memFileRepository файловый репозиторий в памяти
type memFileRepository struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFileRepository() *memFileRepository {
	return &memFileRepository{files: map[string][]byte{}}
}

func (r *memFileRepository) put(path string, data []byte) {
	r.mu.Lock()
	r.files[path] = data
	r.mu.Unlock()
}

func (r *memFileRepository) get(path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[path]
	return data, ok
}

func (r *memFileRepository) GetFileInfo(path string) (*entities.PDFDocument, error) {
	data, ok := r.get(path)
	if !ok {
		return nil, entities.ErrFileNotFound
	}
	return &entities.PDFDocument{Path: path, Size: int64(len(data))}, nil
}

func (r *memFileRepository) FileExists(path string) bool {
	_, ok := r.get(path)
	return ok
}

func (r *memFileRepository) CreateDirectory(string) error { return nil }

func (r *memFileRepository) ListPDFFiles(string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for p := range r.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (r *memFileRepository) ReadFile(path string) ([]byte, error) {
	data, ok := r.get(path)
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (r *memFileRepository) WriteFileAtomic(path string, data []byte) error {
	r.put(path, data)
	return nil
}

// countingLogger считает сообщения по уровням
type countingLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
	infos    int
}

func (l *countingLogger) Debug(string, ...interface{}) {}
func (l *countingLogger) Info(string, ...interface{}) {
	l.mu.Lock()
	l.infos++
	l.mu.Unlock()
}
func (l *countingLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}
func (l *countingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}
func (l *countingLogger) Success(string, ...interface{}) {}
func (l *countingLogger) Close() error                   { return nil }

func (l *countingLogger) warningCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}
