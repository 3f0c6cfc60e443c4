package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// VisionRecognizer uses Google Cloud Vision text detection.
type VisionRecognizer struct {
	svc *vision.Service
}

var _ Recognizer = (*VisionRecognizer)(nil)

func NewVisionRecognizer(ctx context.Context, opts ...option.ClientOption) (*VisionRecognizer, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &VisionRecognizer{svc: svc}, nil
}

func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte, languageHint string) (string, error) {
	req := &vision.AnnotateImageRequest{
		Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
	}
	if languageHint != "" {
		req.ImageContext = &vision.ImageContext{LanguageHints: []string{languageHint}}
	}

	resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", ErrNoText
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return "", fmt.Errorf("annotate image: %s (code %d)", r.Error.Message, r.Error.Code)
	}

	var text string
	switch {
	case r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "":
		text = r.FullTextAnnotation.Text
	case len(r.TextAnnotations) > 0:
		text = r.TextAnnotations[0].Description
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	slog.DebugContext(ctx, "Text recognized", "chars", len(text), "language", languageHint)
	return text, nil
}
