package tagger

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
)

// DecodeBase64Image decodes a base64-encoded image payload. A data URI
// prefix ("data:image/...;base64,") is tolerated and stripped. It returns
// the raw image bytes (used for content hashing) alongside the decoded
// image.
func DecodeBase64Image(encoded string) ([]byte, image.Image, error) {
	if strings.HasPrefix(encoded, "data:image/") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	img, err := DecodeImage(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, img, nil
}

// DecodeImage decodes raw image bytes in any registered format (png, jpeg,
// gif, webp, avif).
func DecodeImage(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}
