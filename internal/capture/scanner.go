// Package capture turns camera frames into decoded (text, symbology) pairs.
// Camera access and barcode decoding are supplied by the host platform
// through the Camera and Decoder interfaces.
package capture

import (
	"context"
	"errors"
	"strings"

	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/model"

	"go.uber.org/zap"
)

// ErrNoCode is returned by a Decoder when a frame holds no readable code.
var ErrNoCode = errors.New("no code in frame")

// Frame is one image from the camera.
type Frame []byte

// FrameSource is an open camera stream.
type FrameSource interface {
	// Next blocks until a frame is available.
	Next(ctx context.Context) (Frame, error)

	// Release frees the camera.
	Release() error
}

// Camera opens a frame stream from a video device.
type Camera interface {
	Open(ctx context.Context) (FrameSource, error)
}

// Decoder reads a code from a frame. It returns ErrNoCode when the frame is
// readable but holds nothing to decode.
type Decoder interface {
	Decode(frame Frame) (text string, symbology string, err error)
}

// Result is a decoded scan.
type Result struct {
	Text      string             `json:"text"`
	Symbology string             `json:"symbology"`
	Class     model.PayloadClass `json:"class"`
	Renderer  string             `json:"renderer_format"`
}

// Classify trims the decoded text and derives the payload class and renderer
// format.
func Classify(text, symbology string) Result {
	text = strings.TrimSpace(text)
	symbology = strings.TrimSpace(symbology)
	return Result{
		Text:      text,
		Symbology: symbology,
		Class:     model.ClassifyPayload(symbology, text),
		Renderer:  model.NormalizeSymbology(symbology, text),
	}
}

// Scanner runs a camera until one code is decoded.
type Scanner struct {
	camera  Camera
	decoder Decoder
	logger  *zap.Logger
}

// NewScanner creates a scanner.
func NewScanner(camera Camera, decoder Decoder, logger *zap.Logger) *Scanner {
	return &Scanner{camera: camera, decoder: decoder, logger: logging.OrNop(logger)}
}

// Scan decodes frames until a code is found, ctx is cancelled or the camera
// fails. The camera is released on every return path. There is no timeout
// beyond what ctx carries.
func (s *Scanner) Scan(ctx context.Context) (res Result, err error) {
	src, err := s.camera.Open(ctx)
	if err != nil {
		return Result{}, &model.CaptureError{Reason: "camera unavailable", Err: err}
	}
	defer func() {
		if rerr := src.Release(); rerr != nil {
			s.logger.Warn("failed to release camera", zap.Error(rerr))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, &model.CaptureError{Reason: "scan stopped", Err: err}
		}

		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, &model.CaptureError{Reason: "scan stopped", Err: ctx.Err()}
			}
			return Result{}, &model.CaptureError{Reason: "camera failed", Err: err}
		}

		text, symbology, err := s.decoder.Decode(frame)
		if errors.Is(err, ErrNoCode) {
			continue
		}
		if err != nil {
			return Result{}, &model.CaptureError{Reason: "decode failed", Err: err}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		res = Classify(text, symbology)
		s.logger.Debug("code decoded", zap.String("symbology", res.Symbology), zap.String("class", string(res.Class)))
		return res, nil
	}
}
