package blob

import "strings"

// ImagePrefix is the key prefix for uploaded images.
const ImagePrefix = "images/"

const imageTypePrefix = "image/"

// IsImageType reports whether a declared media type is an image type.
// The check is an "image/" prefix match on the client-declared value,
// ignoring case. Content is never sniffed.
func IsImageType(declared string) bool {
	return strings.HasPrefix(strings.ToLower(declared), imageTypePrefix)
}

// ImageKey returns the storage key for an uploaded image filename.
// The name is used verbatim.
func ImageKey(name string) string {
	return ImagePrefix + name
}
