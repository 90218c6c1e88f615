package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements (scripts, event handlers) from
// rendered markdown while keeping the tags safe for user-facing content.
var htmlSanitizer = bluemonday.UGCPolicy()

// md converts markdown to HTML with GitHub-flavored extensions.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
)

// Markdown converts markdown source to sanitized HTML suitable for
// embedding in templates. Conversion errors yield an empty string.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return ""
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}
