package file

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// sanitizeName keeps the last path element of a client supplied name and
// replaces characters that are unsafe in a Content-Disposition header.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)
	return truncateName(name, maxOriginalNameLen)
}

// maxOriginalNameLen is the width of the stored original name, in characters.
const maxOriginalNameLen = 255

// truncateName shortens the stem so name fits in max characters while the
// extension survives intact.
func truncateName(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	ext := path.Ext(name)
	if utf8.RuneCountInString(ext) >= max {
		ext = ""
	}
	stem := []rune(strings.TrimSuffix(name, ext))
	return string(stem[:max-utf8.RuneCountInString(ext)]) + ext
}

// declaredTypeAllowed reports whether the client content type matches ext.
// An absent or generic declaration is not checked.
func declaredTypeAllowed(ext, declared string) bool {
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" || declared == "application/octet-stream" {
		return true
	}
	for _, t := range allowedTypes[ext] {
		if t == declared {
			return true
		}
	}
	return false
}

// sniff verifies data really is what ext claims and returns its mime type.
func sniff(ext string, data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	want := allowedTypes[ext][0]

	if ext == ".pdf" {
		if !detected.Is(want) || !bytes.HasPrefix(data, []byte("%PDF")) {
			return "", false
		}
		return want, true
	}

	if !detected.Is(want) {
		return "", false
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", false
	}
	return want, true
}
