package a2a

import "encoding/base64"

/*
Part is a union over Text, File and Data parts.  Serialization is
structural: exactly one of the three payload fields is populated and the
wire form carries no discriminator, so the kind is inferred from which
field is present.
*/
type Part struct {
	Text *string        `json:"text,omitempty"`
	File *FilePart      `json:"file,omitempty"`
	Data map[string]any `json:"data,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// PartKind names the inferred variant of a Part.
type PartKind string

const (
	PartKindText    PartKind = "text"
	PartKindFile    PartKind = "file"
	PartKindData    PartKind = "data"
	PartKindUnknown PartKind = "unknown"
)

func (part Part) Kind() PartKind {
	switch {
	case part.Text != nil:
		return PartKindText
	case part.File != nil:
		return PartKindFile
	case part.Data != nil:
		return PartKindData
	}
	return PartKindUnknown
}

/*
FilePart carries either inline base64 bytes or a URI, never both.
*/
type FilePart struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Bytes    string  `json:"bytes,omitempty"`
	URI      string  `json:"uri,omitempty"`
}

func NewTextPart(text string) Part {
	return Part{Text: &text}
}

func NewFilePart(name string, mimeType string, data []byte) Part {
	return Part{
		File: &FilePart{
			Name:     &name,
			MimeType: &mimeType,
			Bytes:    base64.StdEncoding.EncodeToString(data),
		},
	}
}

func NewURIFilePart(uri string, mimeType string) Part {
	return Part{
		File: &FilePart{
			MimeType: &mimeType,
			URI:      uri,
		},
	}
}

func NewDataPart(data map[string]any) Part {
	return Part{Data: data}
}
