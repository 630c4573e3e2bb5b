package document

import (
	"mime"
	"path"
	"strings"
)

// Format tags the byte encoding of a fetched document.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatEML     Format = "eml"
	FormatUnknown Format = "unknown"
)

// Ext returns the filename suffix for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatUnknown || f == "" {
		return ""
	}
	return "." + string(f)
}

func (f Format) Known() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatEML:
		return true
	}
	return false
}

// FormatFromName resolves a format from a filename or URL path suffix,
// case-insensitively.
func FormatFromName(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".eml":
		return FormatEML
	}
	return FormatUnknown
}

// FormatFromContentType matches MIME type substrings. Checked in order:
// "pdf", then "word"/"document", then "message/rfc822".
func FormatFromContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
		return FormatUnknown
	case strings.Contains(ct, "pdf"):
		return FormatPDF
	case strings.Contains(ct, "word"), strings.Contains(ct, "document"):
		return FormatDOCX
	case strings.Contains(ct, "message/rfc822"):
		return FormatEML
	}
	return FormatUnknown
}

// FormatFromContentDisposition resolves the format from the filename
// parameter of a Content-Disposition header, if any.
func FormatFromContentDisposition(header string) Format {
	if header == "" {
		return FormatUnknown
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return FormatUnknown
	}
	name := params["filename"]
	if name == "" {
		return FormatUnknown
	}
	return FormatFromName(name)
}
