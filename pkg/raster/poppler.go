// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package raster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 200

// compile-time check
var _ Rasterizer = (*Poppler)(nil)

// Poppler renders pages with the pdftoppm command from poppler-utils and
// counts them with pdfinfo, so both steps accept the same documents.
type Poppler struct {
	bin  string
	info string // pdfinfo; empty when not installed
	dpi  int
}

// NewPoppler locates pdftoppm and pdfinfo. dir is the directory holding the
// poppler binaries; when empty they are looked up on $PATH. pdfinfo is
// optional: without it pages are counted with the built-in PDF parser.
func NewPoppler(dir string, dpi int) (*Poppler, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	bin, err := lookPoppler(dir, "pdftoppm")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm not found (install poppler-utils or set pdf.poppler_path): %w", err)
	}
	info, _ := lookPoppler(dir, "pdfinfo")
	return &Poppler{bin: bin, info: info, dpi: dpi}, nil
}

func lookPoppler(dir, name string) (string, error) {
	if dir != "" {
		name = filepath.Join(dir, name)
	}
	return exec.LookPath(name)
}

// Binary returns the resolved pdftoppm path.
func (p *Poppler) Binary() string {
	return p.bin
}

// InfoBinary returns the resolved pdfinfo path, or "" when it is missing.
func (p *Poppler) InfoBinary() string {
	return p.info
}

// PageCount returns the number of pages in the PDF. pdfinfo repairs broken
// cross-reference tables and opens encrypted files with an empty user
// password the same way pdftoppm does.
func (p *Poppler) PageCount(ctx context.Context, pdfPath string) (int, error) {
	if p.info == "" {
		return CountPages(pdfPath)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.info, pdfPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("pdfinfo: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parsePages(stdout.String())
}

// parsePages reads the "Pages:" line of pdfinfo output.
func parsePages(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		value, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", strings.TrimSpace(value))
		}
		if n == 0 {
			return 0, ErrNoPages
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo: no page count in output")
}

// RenderPage renders one page to PNG. The command is bound to ctx, so a
// cancelled extraction kills the child process.
func (p *Poppler) RenderPage(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}

	tmpDir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPrefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.bin,
		"-png",
		"-r", strconv.Itoa(p.dpi),
		"-f", n, "-l", n,
		"-singlefile",
		pdfPath, outPrefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page %d: %w", page, err)
	}
	return data, nil
}
