// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package vision provides an OCR engine backed by the Google Cloud Vision API.
package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
)

// ErrNoResponse is returned when the API answers without an annotation result.
var ErrNoResponse = errors.New("vision: empty response")

func init() {
	ocr.Engines.Register("vision", func(ctx context.Context, params map[string]string) (ocr.Engine, error) {
		return New(ctx, Options{
			CredentialsFile: params["credentials_file"],
			Languages:       ocr.SplitLanguages(params["languages"]),
		})
	})
}

// compile-time check
var _ ocr.Engine = (*Engine)(nil)

// Options configures the Vision client.
type Options struct {
	// CredentialsFile is a service account key. When empty, inline JSON from
	// GOOGLE_CREDENTIALS is tried, then Application Default Credentials.
	CredentialsFile string
	// Languages are Tesseract codes such as "eng" or "chi_sim". They are
	// converted to BCP-47 hints; Vision detects the language otherwise.
	Languages []string
}

// Engine runs DOCUMENT_TEXT_DETECTION on inline image bytes.
type Engine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

// New dials the Vision API.
func New(ctx context.Context, opts Options) (*Engine, error) {
	var clientOptions []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOptions = append(clientOptions, option.WithCredentialsFile(opts.CredentialsFile))
	case os.Getenv("GOOGLE_CREDENTIALS") != "":
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS"))))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return NewWithClient(client, opts.Languages), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *vision.ImageAnnotatorClient, languages []string) *Engine {
	return &Engine{client: client, languages: languageHints(languages)}
}

// Tesseract pseudo-languages with no natural language behind them.
var tesseractOnly = map[string]bool{"osd": true, "equ": true}

// languageHints maps Tesseract language codes (ISO 639-2/3, optionally with a
// script suffix) to the ISO 639-1 codes Vision expects. Codes that do not
// parse are dropped.
func languageHints(codes []string) []string {
	var hints []string
	seen := make(map[string]bool)
	for _, code := range codes {
		code, _, _ = strings.Cut(strings.ToLower(code), "_")
		if code == "" || tesseractOnly[code] {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		base, conf := tag.Base()
		if conf == language.No {
			continue
		}
		hint := base.String()
		if hint == "und" || seen[hint] {
			continue
		}
		seen[hint] = true
		hints = append(hints, hint)
	}
	return hints
}

func (e *Engine) Name() string { return "vision" }

// Recognize sends image to the API and returns the full text annotation.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ocr.ErrEmptyImage
	}

	resp, err := e.client.BatchAnnotateImages(ctx, buildRequest(image, e.languages))
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	return responseText(resp)
}

// Close closes the underlying gRPC connection.
func (e *Engine) Close() error {
	return e.client.Close()
}

func buildRequest(image []byte, languages []string) *visionpb.BatchAnnotateImagesRequest {
	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: image},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if len(languages) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: languages}
	}
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	}
}

func responseText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	responses := resp.GetResponses()
	if len(responses) == 0 {
		return "", ErrNoResponse
	}
	r := responses[0]
	if status := r.GetError(); status != nil && status.GetCode() != 0 {
		return "", fmt.Errorf("vision: %s (code %d)", status.GetMessage(), status.GetCode())
	}
	return r.GetFullTextAnnotation().GetText(), nil
}
