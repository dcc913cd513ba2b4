package compressors

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

var disableConfigDir sync.Once

var errNoPages = errors.New("документ не содержит страниц")

// Необязательные ключи страницы, удаляемые на поздних итерациях доводки
var optionalPageKeys = []string{
	"StructParents",
	"PieceInfo",
	"Thumb",
	"B",
	"Metadata",
	"LastModified",
	"SeparationInfo",
}

// PDFCPULoader загружает документы через pdfcpu
type PDFCPULoader struct {
	conf *model.Configuration
}

// NewPDFCPULoader создает загрузчик документов pdfcpu
func NewPDFCPULoader() *PDFCPULoader {
	// pdfcpu не должен создавать каталог конфигурации в домашней директории
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	return &PDFCPULoader{conf: conf}
}

// Name имя движка
func (l *PDFCPULoader) Name() string {
	return entities.EnginePDFCPU
}

// Load разбирает, проверяет и оптимизирует документ
func (l *PDFCPULoader) Load(data []byte) (doc repositories.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: паника при разборе: %v", entities.ErrInvalidFileFormat, r)
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(data), l.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
	}

	if ctx.PageCount == 0 {
		return nil, errNoPages
	}

	// Объединение дубликатов шрифтов и изображений
	if err := api.OptimizeContext(ctx); err != nil {
		return nil, fmt.Errorf("ошибка оптимизации pdfcpu: %w", err)
	}

	return &pdfcpuDocument{ctx: ctx}, nil
}

// pdfcpuDocument реализация Document поверх контекста pdfcpu
type pdfcpuDocument struct {
	ctx *model.Context
}

func (d *pdfcpuDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) infoDict() (types.Dict, error) {
	if d.ctx.Info == nil {
		return nil, nil
	}
	return d.ctx.DereferenceDict(*d.ctx.Info)
}

func (d *pdfcpuDocument) Info(key string) (string, bool) {
	info, err := d.infoDict()
	if err != nil || info == nil {
		return "", false
	}

	obj, ok := info[key]
	if !ok {
		return "", false
	}

	obj, err = d.ctx.Dereference(obj)
	if err != nil {
		return "", false
	}

	switch v := obj.(type) {
	case types.StringLiteral:
		return v.Value(), true
	case types.HexLiteral:
		return v.Value(), true
	default:
		return "", false
	}
}

func (d *pdfcpuDocument) SetInfo(key, value string) error {
	info, err := d.infoDict()
	if err != nil {
		return fmt.Errorf("информационный словарь: %w", err)
	}
	if info == nil {
		return nil
	}

	// Пустые поля не выводятся: удаляем ключ целиком
	if value == "" {
		delete(info, key)
		return nil
	}
	info[key] = types.StringLiteral(value)
	return nil
}

func (d *pdfcpuDocument) StripXMP() error {
	root, err := d.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("каталог документа: %w", err)
	}
	delete(root, "Metadata")
	return nil
}

func (d *pdfcpuDocument) PageSize(page int) (float64, float64, error) {
	_, _, inh, err := d.ctx.PageDict(page, false)
	if err != nil {
		return 0, 0, err
	}
	if inh == nil || inh.MediaBox == nil {
		return 0, 0, fmt.Errorf("у страницы %d нет MediaBox", page)
	}
	return inh.MediaBox.Width(), inh.MediaBox.Height(), nil
}

func (d *pdfcpuDocument) ScalePage(page int, factor float64) error {
	pageDict, _, inh, err := d.ctx.PageDict(page, false)
	if err != nil {
		return err
	}
	if pageDict == nil || inh == nil || inh.MediaBox == nil {
		return fmt.Errorf("страница %d недоступна", page)
	}

	if contents, ok := pageDict["Contents"]; ok {
		wrapped, err := d.wrapContents(contents, factor)
		if err != nil {
			return err
		}
		pageDict["Contents"] = wrapped
	}

	pageDict["MediaBox"] = scaleRect(inh.MediaBox, factor).Array()
	if inh.CropBox != nil {
		pageDict["CropBox"] = scaleRect(inh.CropBox, factor).Array()
	}
	for _, key := range []string{"BleedBox", "TrimBox", "ArtBox"} {
		r, ok := d.rectFor(pageDict[key])
		if !ok {
			delete(pageDict, key)
			continue
		}
		pageDict[key] = scaleRect(r, factor).Array()
	}

	d.scaleAnnotations(pageDict, factor)
	return nil
}

// scaleAnnotations переносит прямоугольники аннотаций в новый масштаб страницы.
// Поврежденные аннотации пропускаются.
func (d *pdfcpuDocument) scaleAnnotations(pageDict types.Dict, factor float64) {
	annots, err := d.ctx.DereferenceArray(pageDict["Annots"])
	if err != nil {
		return
	}
	for _, a := range annots {
		annot, err := d.ctx.DereferenceDict(a)
		if err != nil || annot == nil {
			continue
		}
		if r, ok := d.rectFor(annot["Rect"]); ok {
			annot["Rect"] = scaleRect(r, factor).Array()
		}
	}
}

// rectFor читает прямоугольник из массива из четырех чисел
func (d *pdfcpuDocument) rectFor(o types.Object) (*types.Rectangle, bool) {
	if o == nil {
		return nil, false
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil || len(arr) != 4 {
		return nil, false
	}
	r, err := d.ctx.RectForArray(arr)
	if err != nil {
		return nil, false
	}
	return r, true
}

// wrapContents окружает потоки содержимого матрицей масштабирования
func (d *pdfcpuDocument) wrapContents(contents types.Object, factor float64) (types.Array, error) {
	prefix, err := d.newContentStream(fmt.Sprintf("q %.4f 0 0 %.4f 0 0 cm\n", factor, factor))
	if err != nil {
		return nil, err
	}
	suffix, err := d.newContentStream("\nQ\n")
	if err != nil {
		return nil, err
	}

	arr := types.Array{*prefix}
	switch c := contents.(type) {
	case types.IndirectRef:
		arr = append(arr, c)
	case *types.IndirectRef:
		arr = append(arr, *c)
	case types.Array:
		arr = append(arr, c...)
	default:
		return nil, fmt.Errorf("неподдерживаемый тип Contents: %T", contents)
	}
	return append(arr, *suffix), nil
}

func (d *pdfcpuDocument) newContentStream(content string) (*types.IndirectRef, error) {
	raw := []byte(content)
	length := int64(len(raw))

	sd := types.StreamDict{
		Dict:         types.NewDict(),
		Content:      raw,
		Raw:          raw,
		StreamLength: &length,
	}
	sd.Dict["Length"] = types.Integer(len(raw))

	return d.ctx.IndRefForNewObject(sd)
}

func scaleRect(r *types.Rectangle, factor float64) *types.Rectangle {
	return types.NewRectangle(r.LL.X*factor, r.LL.Y*factor, r.UR.X*factor, r.UR.Y*factor)
}

func (d *pdfcpuDocument) StripStructure(page int) error {
	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return err
	}
	for _, key := range optionalPageKeys {
		delete(pageDict, key)
	}

	// Без StructParents дерево структуры ссылается на пустоту
	if root, err := d.ctx.Catalog(); err == nil {
		delete(root, "StructTreeRoot")
		delete(root, "MarkInfo")
	}
	return nil
}

func (d *pdfcpuDocument) TransformImages(fn repositories.ImageTransform) (int, error) {
	replaced := 0
	var errs []error

	for objNr, entry := range d.ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}

		switch sd := entry.Object.(type) {
		case types.StreamDict:
			ok, err := transformImage(&sd, fn)
			if err != nil {
				errs = append(errs, fmt.Errorf("объект %d: %w", objNr, err))
				continue
			}
			if ok {
				entry.Object = sd
				replaced++
			}
		case *types.StreamDict:
			ok, err := transformImage(sd, fn)
			if err != nil {
				errs = append(errs, fmt.Errorf("объект %d: %w", objNr, err))
				continue
			}
			if ok {
				replaced++
			}
		}
	}

	return replaced, errors.Join(errs...)
}

// transformImage заменяет байты JPEG изображения 8 бит RGB или Gray
func transformImage(sd *types.StreamDict, fn repositories.ImageTransform) (bool, error) {
	if !isName(sd.Dict["Subtype"], "Image") || !isName(sd.Dict["Filter"], "DCTDecode") {
		return false, nil
	}
	if !isName(sd.Dict["ColorSpace"], "DeviceRGB") && !isName(sd.Dict["ColorSpace"], "DeviceGray") {
		return false, nil
	}
	if bpc, ok := sd.Dict["BitsPerComponent"].(types.Integer); ok && bpc.Value() != 8 {
		return false, nil
	}
	if _, masked := sd.Dict["SMask"]; masked {
		return false, nil
	}
	if len(sd.Raw) == 0 {
		return false, nil
	}

	out, width, height, err := fn(sd.Raw)
	if err != nil || out == nil {
		return false, err
	}

	length := int64(len(out))
	sd.Raw = out
	sd.Content = out
	sd.StreamLength = &length
	sd.Dict["Length"] = types.Integer(len(out))
	sd.Dict["Width"] = types.Integer(width)
	sd.Dict["Height"] = types.Integer(height)
	delete(sd.Dict, "DecodeParms")

	return true, nil
}

func isName(obj types.Object, name string) bool {
	n, ok := obj.(types.Name)
	return ok && n.Value() == name
}

func (d *pdfcpuDocument) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
