package signet

import (
	"fmt"
	"slices"
)

// ContentTypeSVG is only accepted when a deployment opts in, since SVG
// documents can carry script.
const ContentTypeSVG = "image/svg+xml"

// DefaultContentTypes are the image types accepted for upload.
var DefaultContentTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
}

// MimeAllowlist is an immutable set of accepted content types.
// Matching is exact and case-sensitive.
type MimeAllowlist struct {
	types map[string]struct{}
}

func NewMimeAllowlist(types ...string) *MimeAllowlist {
	m := &MimeAllowlist{types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		m.types[t] = struct{}{}
	}
	return m
}

// DefaultMimeAllowlist returns DefaultContentTypes, plus SVG when allowSVG is set.
func DefaultMimeAllowlist(allowSVG bool) *MimeAllowlist {
	types := slices.Clone(DefaultContentTypes)
	if allowSVG {
		types = append(types, ContentTypeSVG)
	}
	return NewMimeAllowlist(types...)
}

func (m *MimeAllowlist) Allowed(contentType string) bool {
	_, ok := m.types[contentType]
	return ok
}

// Validate returns ErrMissingParameter for an empty content type and
// ErrUnsupportedMediaType for one outside the set.
func (m *MimeAllowlist) Validate(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("contentType is required: %w", ErrMissingParameter)
	}
	if !m.Allowed(contentType) {
		return fmt.Errorf("content type %q is not allowed: %w", contentType, ErrUnsupportedMediaType)
	}
	return nil
}

// Types returns the allowed content types in sorted order.
func (m *MimeAllowlist) Types() []string {
	out := make([]string, 0, len(m.types))
	for t := range m.types {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
