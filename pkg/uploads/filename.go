// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package uploads

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AllowedExtensions are the accepted upload types, lower-case without the dot.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// Windows device names; a file named after one is unusable there.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM0": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT0": true, "LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// AllowedExtension reports whether name ends in one of AllowedExtensions.
// The comparison is case-insensitive and a name without a dot is rejected.
func AllowedExtension(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(name[i+1:])]
}

// IsPDF reports whether name has a .pdf extension.
func IsPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

// SecureFilename reduces an untrusted client filename to a flat name that is
// safe to join with the upload directory.
//
// The name is NFKD-normalised and folded to ASCII, path separators become
// spaces, whitespace runs collapse into a single underscore and anything
// outside [A-Za-z0-9_.-] is dropped. Leading and trailing dots and
// underscores are removed. The result may be empty.
func SecureFilename(name string) string {
	var ascii strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r >= 0x80 {
			continue
		}
		if r == '/' || r == '\\' {
			r = ' '
		}
		ascii.WriteRune(r)
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")
	if out != "" {
		stem, _, _ := strings.Cut(out, ".")
		if reservedNames[strings.ToUpper(stem)] {
			out = "_" + out
		}
	}
	return out
}
