package model

import "strings"

// Decoder symbology tags as reported by the capture pipeline.
const (
	FormatQRCode  = "QR_CODE"
	FormatEAN13   = "EAN_13"
	FormatEAN8    = "EAN_8"
	FormatCode128 = "CODE_128"
	FormatCode39  = "CODE_39"
	FormatITF     = "ITF"
	FormatUPCA    = "UPC_A"
)

// Renderer format names.
const (
	RenderEAN13   = "EAN13"
	RenderEAN8    = "EAN8"
	RenderCode128 = "CODE128"
	RenderCode39  = "CODE39"
	RenderITF     = "ITF"
	RenderUPC     = "UPC"
)

var rendererFormats = map[string]string{
	FormatEAN13:   RenderEAN13,
	FormatEAN8:    RenderEAN8,
	FormatCode128: RenderCode128,
	FormatCode39:  RenderCode39,
	FormatITF:     RenderITF,
	FormatUPCA:    RenderUPC,
}

// NormalizeSymbology maps a decoder symbology to the renderer format name.
// Unknown or missing symbologies are inferred from the digit pattern of value:
// 13 digits is EAN13, 8 digits is EAN8, anything else CODE128.
func NormalizeSymbology(format, value string) string {
	if f, ok := rendererFormats[format]; ok {
		return f
	}
	if allDigits(value) {
		switch len(value) {
		case 13:
			return RenderEAN13
		case 8:
			return RenderEAN8
		}
	}
	return RenderCode128
}

// ClassifyPayload guesses whether a value should be shown as a QR code or a
// linear barcode.
func ClassifyPayload(format, value string) PayloadClass {
	if format == FormatQRCode {
		return PayloadQR
	}
	if !allDigits(strings.TrimSpace(value)) {
		return PayloadQR
	}
	return PayloadBarcode
}

// allDigits reports whether s is a non-empty run of ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
