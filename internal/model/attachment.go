package model

// AttachmentKind distinguishes a user-picked file from a captured drawing.
// The caller tags the input explicitly; nothing is inferred from shape.
type AttachmentKind string

const (
	AttachmentUpload  AttachmentKind = "upload"
	AttachmentCapture AttachmentKind = "capture"
)

// Attachment is one staged file for an essay question. Base64Data is
// filled in during staging for uploads; captures arrive already encoded.
type Attachment struct {
	Kind       AttachmentKind
	Filename   string
	MimeType   string
	Size       int64
	Base64Data string
}

// Wire converts a staged attachment to its save/submit payload form.
func (a Attachment) Wire() Base64Image {
	return Base64Image{Data: a.Base64Data, Filename: a.Filename, MimeType: a.MimeType}
}
