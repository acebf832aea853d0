// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package raster

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageTexts returns the embedded text of every page, indexed from page 1 at
// position 0. Pages without a text layer yield "".
func PageTexts(path string) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("read PDF text: malformed document: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	n := reader.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}
