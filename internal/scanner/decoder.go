package scanner

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ErrNoSymbol is returned when a frame holds no readable barcode
var ErrNoSymbol = errors.New("no barcode in frame")

// Symbol is one decoded barcode
type Symbol struct {
	Text   string
	Format string
}

// Decoder runs best-effort barcode detection over a single frame
type Decoder interface {
	Decode(img image.Image) (Symbol, error)
}

// Symbologies scanned for
var Symbologies = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_UPC_E,
	gozxing.BarcodeFormat_CODE_128,
	gozxing.BarcodeFormat_CODE_39,
	gozxing.BarcodeFormat_CODE_93,
}

// ZXingDecoder decodes one-dimensional symbologies with gozxing
type ZXingDecoder struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: Symbologies,
		gozxing.DecodeHintType_TRY_HARDER:       true,
	}
	return &ZXingDecoder{
		reader: newOneDReader(hints),
		hints:  hints,
	}
}

// Decode returns ErrNoSymbol when nothing is found. Decoder panics on
// malformed frames are reported as errors.
func (d *ZXingDecoder) Decode(img image.Image) (sym Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Symbol{}, fmt.Errorf("failed to binarize frame: %w", err)
	}

	result, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrNoSymbol, err)
	}
	if result.GetText() == "" {
		return Symbol{}, ErrNoSymbol
	}
	return Symbol{Text: result.GetText(), Format: result.GetBarcodeFormat().String()}, nil
}

// oneDReader tries each symbology reader in turn and returns the first match
type oneDReader struct {
	readers []gozxing.Reader
}

func newOneDReader(hints map[gozxing.DecodeHintType]interface{}) *oneDReader {
	return &oneDReader{readers: []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		oned.NewCode93Reader(),
	}}
}

func (r *oneDReader) DecodeWithoutHints(bmp *gozxing.BinaryBitmap) (*gozxing.Result, error) {
	return r.Decode(bmp, nil)
}

func (r *oneDReader) Decode(bmp *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) (*gozxing.Result, error) {
	var lastErr error
	for _, reader := range r.readers {
		result, err := reader.Decode(bmp, hints)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *oneDReader) Reset() {
	for _, reader := range r.readers {
		reader.Reset()
	}
}
