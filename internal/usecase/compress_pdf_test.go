package usecases_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/logging"
	usecases "pdfshrink/internal/usecase"
)

type fakePost struct {
	shrink float64
	err    error
	calls  int
}

func (p *fakePost) Name() string { return "post" }

func (p *fakePost) Optimize(data []byte, profile entities.CompressionProfile) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return data[:int(float64(len(data))*p.shrink)], nil
}

type fakeResampler struct{}

func (fakeResampler) Transform(int, float64) repositories.ImageTransform {
	return func([]byte) ([]byte, int, int, error) { return nil, 0, 0, nil }
}

type fakeCounter struct {
	pages int
	err   error
}

func (c fakeCounter) CountPages([]byte) (int, error) { return c.pages, c.err }

type fakeHistory struct {
	records []*entities.CompressionResult
	err     error
}

func (h *fakeHistory) Record(_ context.Context, r *entities.CompressionResult) error {
	h.records = append(h.records, r)
	return h.err
}

func (h *fakeHistory) Recent(context.Context, int) ([]entities.HistoryRecord, error) {
	return nil, nil
}

func (h *fakeHistory) Close() error { return nil }

func newCompressor(loader *fakeLoader, files *memFileRepository, logger repositories.Logger) *usecases.CompressPDFUseCase {
	uc := usecases.NewCompressPDFUseCase(loader, files, logger, usecases.CompressOptions{ResampleImages: true})
	uc.SetRunLogger(logging.PerRun)
	uc.SetImageResampler(fakeResampler{})
	return uc
}

func TestCompressPDF_EndToEndTwelveMegabytes(t *testing.T) {
	loader := newFakeLoader(4)
	files := newMemFileRepository()
	files.put("/in/report.pdf", make([]byte, 12*1024*1024))
	history := &fakeHistory{}

	uc := newCompressor(loader, files, nil)
	uc.SetHistory(history)

	result, err := uc.Execute(context.Background(), entities.CompressionRequest{InputPath: "/in/report.pdf"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	p := result.Profile
	if p.Tier != entities.TierExtreme || p.TargetSizeKB != 5500 || p.ImageQuality != 30 || p.PageScale != 0.6 {
		t.Errorf("Unexpected profile: %+v", p)
	}

	// Первый проход 0.6, затем доводка 0.9 и 0.8
	want := []float64{0.6, 0.9, 0.8}
	if len(loader.scales) != len(want) {
		t.Fatalf("Expected scales %v, got %v", want, loader.scales)
	}
	for i, s := range want {
		if loader.scales[i] != s {
			t.Errorf("Step %d: expected scale %v, got %v", i, s, loader.scales[i])
		}
	}

	if result.OriginalSizeKB != 12288 {
		t.Errorf("Expected original 12288KB, got %v", result.OriginalSizeKB)
	}
	if result.CompressedSizeKB > 5500 || !result.TargetReached {
		t.Errorf("Expected target reached, got %vKB", result.CompressedSizeKB)
	}
	if result.Iterations != 2 || result.RefineState != entities.RefineDone {
		t.Errorf("Expected done after 2 iterations, got %v after %d", result.RefineState, result.Iterations)
	}

	wantRatio := int(math.Round((result.OriginalSizeKB - result.CompressedSizeKB) / result.OriginalSizeKB * 100))
	if result.CompressionRatioPercent != wantRatio {
		t.Errorf("Expected ratio %d, got %d", wantRatio, result.CompressionRatioPercent)
	}

	if result.OutputPath != "/in/report_compressed.pdf" {
		t.Errorf("Unexpected output path %s", result.OutputPath)
	}
	out, ok := files.get(result.OutputPath)
	if !ok || int64(len(out)) != result.CompressedSize {
		t.Error("Output must be written with the reported size")
	}

	first := loader.docs[0]
	if v, _ := first.Info(repositories.InfoAuthor); v != "" {
		t.Error("Metadata must be stripped")
	}
	if first.images != 1 {
		t.Errorf("Images must be processed once, got %d", first.images)
	}
	if len(history.records) != 1 {
		t.Errorf("Expected history record, got %d", len(history.records))
	}
}

func TestCompressPDF_NegativeRatio(t *testing.T) {
	loader := newFakeLoader(1)
	loader.growth = 1.5
	files := newMemFileRepository()
	files.put("/in/small.pdf", make([]byte, 100*kb))

	result, err := newCompressor(loader, files, nil).Execute(context.Background(),
		entities.CompressionRequest{InputPath: "/in/small.pdf", OutputPath: "/out/small.pdf"})
	if err != nil {
		t.Fatalf("Inflated output must not fail: %v", err)
	}

	if result.CompressedSizeKB <= result.OriginalSizeKB {
		t.Fatalf("Expected inflated output, got %v <= %v", result.CompressedSizeKB, result.OriginalSizeKB)
	}
	want := entities.RatioPercent(result.OriginalSizeKB, result.CompressedSizeKB)
	if result.CompressionRatioPercent != want || want >= 0 {
		t.Errorf("Expected negative ratio %d, got %d", want, result.CompressionRatioPercent)
	}
	if result.TargetReached || result.RefineState != entities.RefineGaveUp {
		t.Errorf("Expected missed target, got %v", result.RefineState)
	}
	if result.IsEffective() {
		t.Error("Inflated output is not effective")
	}
}

func TestCompressPDF_PageFailureKeepsAllPages(t *testing.T) {
	loader := newFakeLoader(5)
	loader.failPage = 3
	files := newMemFileRepository()
	files.put("/in/doc.pdf", make([]byte, 3*1024*1024))
	logger := &countingLogger{}

	uc := newCompressor(loader, files, logger)
	uc.SetPageCounter(fakeCounter{pages: 5})

	result, err := uc.Execute(context.Background(), entities.CompressionRequest{InputPath: "/in/doc.pdf"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	first := loader.docs[0]
	if len(first.scaled) != 4 || first.PageCount() != 5 {
		t.Errorf("Expected 4 scaled pages of 5, got %v", first.scaled)
	}
	if result.Warnings == 0 {
		t.Error("Page failure must be counted as a warning")
	}

	// Страница 3 падает в каждой итерации, но предупреждение одно
	pageWarnings := 0
	for _, w := range logger.warnings {
		if strings.Contains(w, "страница 3") {
			pageWarnings++
		}
	}
	if pageWarnings != 1 {
		t.Errorf("Expected one warning for page 3, got %d: %v", pageWarnings, logger.warnings)
	}
}

func TestCompressPDF_LoadErrors(t *testing.T) {
	files := newMemFileRepository()
	files.put("/in/broken.pdf", []byte("garbage bytes"))
	uc := newCompressor(newFakeLoader(1), files, nil)

	tests := []struct {
		name string
		path string
	}{
		{"Missing file", "/in/missing.pdf"},
		{"Unparseable file", "/in/broken.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), entities.CompressionRequest{InputPath: tt.path})

			var loadErr *entities.LoadError
			if !errors.As(err, &loadErr) || loadErr.Path != tt.path {
				t.Fatalf("Expected LoadError for %s, got %v", tt.path, err)
			}
			if !entities.IsFatal(err) {
				t.Error("LoadError must be fatal")
			}
		})
	}

	if _, ok := files.get("/in/broken_compressed.pdf"); ok {
		t.Error("Nothing must be written on load failure")
	}
}

func TestCompressPDF_SerializationErrorIsFatal(t *testing.T) {
	loader := newFakeLoader(1)
	loader.failSerialize = true
	files := newMemFileRepository()
	files.put("/in/doc.pdf", make([]byte, 2*1024*1024))

	_, err := newCompressor(loader, files, nil).Execute(context.Background(), entities.CompressionRequest{InputPath: "/in/doc.pdf"})

	var se *entities.SerializationError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SerializationError, got %v", err)
	}
	if _, ok := files.get("/in/doc_compressed.pdf"); ok {
		t.Error("Nothing must be written on serialization failure")
	}
}

func TestCompressPDF_InvalidRequest(t *testing.T) {
	uc := newCompressor(newFakeLoader(1), newMemFileRepository(), nil)

	for _, req := range []entities.CompressionRequest{
		{InputPath: ""},
		{InputPath: "/in/doc.pdf", TargetSizeKB: -1},
	} {
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, entities.ErrInvalidRequest) {
			t.Errorf("Request %+v: expected ErrInvalidRequest, got %v", req, err)
		}
	}
}

func TestCompressPDF_ExplicitTarget(t *testing.T) {
	loader := newFakeLoader(1)
	files := newMemFileRepository()
	files.put("/in/doc.pdf", make([]byte, 2*1024*1024))

	result, err := newCompressor(loader, files, nil).Execute(context.Background(),
		entities.CompressionRequest{InputPath: "/in/doc.pdf", TargetSizeKB: 1700})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 2048KB * 0.8 = 1638KB, доводка не нужна
	if result.Profile.TargetSizeKB != 1700 || result.Iterations != 0 || !result.TargetReached {
		t.Errorf("Unexpected result: target %v, iterations %d", result.Profile.TargetSizeKB, result.Iterations)
	}
}

func TestCompressPDF_PostOptimizer(t *testing.T) {
	tests := []struct {
		name         string
		post         *fakePost
		counter      repositories.PageCounter
		wantEngine   string
		wantWarnings bool
	}{
		{"Smaller result is kept", &fakePost{shrink: 0.5}, nil, "fake+post", false},
		{"Failure is a warning", &fakePost{err: errors.New("license")}, nil, "fake", true},
		{"Lost pages are rejected", &fakePost{shrink: 0.5}, fakeCounter{pages: 2}, "fake", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := newMemFileRepository()
			files.put("/in/doc.pdf", make([]byte, 2000*kb))

			uc := newCompressor(newFakeLoader(1), files, nil)
			uc.SetPostOptimizer(tt.post)
			if tt.counter != nil {
				uc.SetPageCounter(tt.counter)
			}

			result, err := uc.Execute(context.Background(),
				entities.CompressionRequest{InputPath: "/in/doc.pdf", TargetSizeKB: 2000})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.post.calls != 1 {
				t.Errorf("Post optimizer must run once, got %d", tt.post.calls)
			}
			if result.Engine != tt.wantEngine {
				t.Errorf("Expected engine %q, got %q", tt.wantEngine, result.Engine)
			}
			if (result.Warnings > 0) != tt.wantWarnings {
				t.Errorf("Unexpected warnings count %d", result.Warnings)
			}

			// 2000KB * 0.8 = 1600KB после первого прохода
			wantKB := 1600.0
			if tt.wantEngine == "fake+post" {
				wantKB = 800
			}
			if result.CompressedSizeKB != wantKB {
				t.Errorf("Expected %vKB, got %vKB", wantKB, result.CompressedSizeKB)
			}
		})
	}
}

func TestCompressPDF_HistoryFailureIsNotFatal(t *testing.T) {
	files := newMemFileRepository()
	files.put("/in/doc.pdf", make([]byte, 600*kb))

	uc := newCompressor(newFakeLoader(1), files, nil)
	uc.SetHistory(&fakeHistory{err: errors.New("disk full")})

	if _, err := uc.Execute(context.Background(), entities.CompressionRequest{InputPath: "/in/doc.pdf"}); err != nil {
		t.Errorf("History failure must be ignored, got %v", err)
	}
}

func TestCompressPDF_RefineTimeout(t *testing.T) {
	loader := newFakeLoader(1)
	loader.ignoreScale = true
	files := newMemFileRepository()
	files.put("/in/doc.pdf", make([]byte, 2*1024*1024))

	uc := usecases.NewCompressPDFUseCase(loader, files, nil, usecases.CompressOptions{RefineTimeout: time.Nanosecond})

	result, err := uc.Execute(context.Background(), entities.CompressionRequest{InputPath: "/in/doc.pdf"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.RefineState != entities.RefineGaveUp || result.TargetReached {
		t.Errorf("Expected gave_up on exhausted budget, got %v", result.RefineState)
	}
	if result.Iterations >= usecases.MaxRefineIterations {
		t.Errorf("Budget must stop the loop early, got %d iterations", result.Iterations)
	}
	if result.Warnings == 0 {
		t.Error("Exhausted budget must be counted as a warning")
	}
}
