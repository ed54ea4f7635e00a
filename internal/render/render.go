// Package render draws a card's code as a PNG for a checkout scanner.
package render

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"loyalty-wallet/internal/model"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/boombuler/barcode/twooffive"
)

const (
	qrSize        = 720
	barcodeWidth  = 600
	barcodeHeight = 200
)

// Image is a rendered code.
type Image struct {
	Class  model.PayloadClass
	Format string // renderer format, "QR" for QR codes
	PNG    []byte
}

// Encoder converts a value and its decoder symbology into an image.
type Encoder interface {
	Encode(value, format string) (Image, error)
}

// PNGEncoder implements Encoder with boombuler/barcode.
type PNGEncoder struct{}

// NewPNGEncoder creates an encoder.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

// Encode classifies the value on every call and renders it. A linear format
// the value does not fit falls back to CODE128.
func (e *PNGEncoder) Encode(value, format string) (Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Image{}, fmt.Errorf("nothing to render")
	}

	if model.ClassifyPayload(format, value) == model.PayloadQR {
		bc, err := qr.Encode(value, qr.M, qr.Auto)
		if err != nil {
			return Image{}, fmt.Errorf("failed to encode QR: %w", err)
		}
		data, err := toPNG(bc, qrSize, qrSize)
		if err != nil {
			return Image{}, err
		}
		return Image{Class: model.PayloadQR, Format: "QR", PNG: data}, nil
	}

	rf := model.NormalizeSymbology(format, value)
	bc, err := encodeLinear(rf, value)
	if err != nil && rf != model.RenderCode128 {
		rf = model.RenderCode128
		bc, err = encodeLinear(rf, value)
	}
	if err != nil {
		return Image{}, fmt.Errorf("failed to encode %s: %w", rf, err)
	}

	w := bc.Bounds().Dx()
	if w < barcodeWidth {
		// whole multiple of the module count keeps every bar the same width
		w = ((barcodeWidth + w - 1) / w) * w
	}
	data, err := toPNG(bc, w, barcodeHeight)
	if err != nil {
		return Image{}, err
	}
	return Image{Class: model.PayloadBarcode, Format: rf, PNG: data}, nil
}

func encodeLinear(format, value string) (barcode.Barcode, error) {
	switch format {
	case model.RenderEAN13, model.RenderEAN8:
		return ean.Encode(value)
	case model.RenderUPC:
		// UPC-A is EAN-13 with a leading zero.
		return ean.Encode("0" + value)
	case model.RenderCode39:
		return code39.Encode(strings.ToUpper(value), false, true)
	case model.RenderITF:
		return twooffive.Encode(value, true)
	default:
		return code128.Encode(value)
	}
}

func toPNG(bc barcode.Barcode, w, h int) ([]byte, error) {
	scaled, err := barcode.Scale(bc, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to scale code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to write PNG: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Encoder = (*PNGEncoder)(nil)
