package domain

import "strings"

type ImageRefKind int

const (
	ImageRefURL ImageRefKind = iota
	ImageRefInline
	ImageRefStorageKey
)

func (k ImageRefKind) String() string {
	switch k {
	case ImageRefURL:
		return "url"
	case ImageRefInline:
		return "inline"
	default:
		return "storage_key"
	}
}

// ImageRef is one opaque entry of Listing.Images.
type ImageRef struct {
	Kind  ImageRefKind
	Value string
}

// ParseImageRef classifies a stored reference. Anything that is neither an
// http(s) URL nor a data: URI is a key in object storage.
func ParseImageRef(ref string) ImageRef {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ImageRef{Kind: ImageRefURL, Value: ref}
	case strings.HasPrefix(lower, "data:"):
		return ImageRef{Kind: ImageRefInline, Value: ref}
	default:
		return ImageRef{Kind: ImageRefStorageKey, Value: strings.TrimPrefix(ref, "/")}
	}
}
