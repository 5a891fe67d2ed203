package model

import (
	"mime/multipart"
	"strings"
)

// ImageKind selects the target geometry and folder of an image upload.
type ImageKind struct {
	Folder string
	Width  int
	Height int
}

var (
	ImageAvatar    = ImageKind{Folder: "avatars", Width: 400, Height: 400}
	ImageCover     = ImageKind{Folder: "covers", Width: 1600, Height: 400}
	ImageThumbnail = ImageKind{Folder: "thumbnails", Width: 1280, Height: 720}
)

const (
	DefaultMaxImageSizeBytes = 5 * 1024 * 1024
	DefaultMaxVideoSizeBytes = 500 * 1024 * 1024
	VideoFolder              = "videos"
	ImageExt                 = ".jpg"
	ImageCacheControl        = "public, max-age=31536000" // 1 year
)

// Supported content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"

	ContentTypeMP4       = "video/mp4"
	ContentTypeQuickTime = "video/quicktime"
	ContentTypeWebM      = "video/webm"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

var videoExtensions = map[string]string{
	ContentTypeMP4:       ".mp4",
	ContentTypeQuickTime: ".mov",
	ContentTypeWebM:      ".webm",
}

// IsAllowedImageType reports whether contentType is an accepted image type.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[strings.ToLower(contentType)]
	return ok
}

// VideoExtension returns the object key extension for contentType, or false
// when the type is not accepted.
func VideoExtension(contentType string) (string, bool) {
	ext, ok := videoExtensions[strings.ToLower(contentType)]
	return ext, ok
}

// FileInput is one uploaded multipart file.
type FileInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// UploadResult is where an object ended up. Key is kept on the owning
// document so the object can be deleted later.
type UploadResult struct {
	URL      string  `json:"url"`
	Key      string  `json:"key"`
	Duration float64 `json:"duration,omitempty"`
}

// Domain errors for media operations
var (
	ErrFileTooLarge     = &Error{Kind: KindInvalidArgument, Message: "File is too large"}
	ErrInvalidImageType = &Error{Kind: KindInvalidArgument, Message: "Unsupported image type. Allowed: jpeg, png, gif, webp"}
	ErrInvalidVideoType = &Error{Kind: KindInvalidArgument, Message: "Unsupported video type. Allowed: mp4, mov, webm"}
	ErrUploadFailed     = &Error{Kind: KindPersistence, Message: "Failed to upload file"}
)
