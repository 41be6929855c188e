package imagestore

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"recipebox/internal/services"
)

// MaxImageBytes bounds decoded image payloads.
const MaxImageBytes = 10 << 20

// AllowImage lists the accepted image MIME types.
var AllowImage = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/heic", "image/heif"}

// Image is a decoded image payload.
type Image struct {
	MIME      string
	Extension string
	Data      []byte
}

// ParseDataURI decodes a base64 data URI. The declared MIME type is checked
// against the sniffed content; the sniffed type wins.
func ParseDataURI(uri string) (Image, error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "parse data uri", "missing data: prefix", nil)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "parse data uri", "missing payload separator", nil)
	}
	if !strings.HasSuffix(strings.ToLower(header), ";base64") {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "parse data uri", "only base64 payloads are supported", nil)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return Image{}, tooLarge(base64.StdEncoding.DecodedLen(len(payload)))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "parse data uri", "invalid base64 payload", err)
	}
	return sniff(data)
}

// EncodeDataURI sniffs data and returns it as a base64 data URI.
func EncodeDataURI(data []byte) (string, error) {
	img, err := sniff(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data)), nil
}

func sniff(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "sniff", "empty image", nil)
	}
	if len(data) > MaxImageBytes {
		return Image{}, tooLarge(len(data))
	}
	detected := mimetype.Detect(data)
	mime := detected.String()
	if base, _, found := strings.Cut(mime, ";"); found {
		mime = base
	}
	if !slices.Contains(AllowImage, mime) {
		return Image{}, services.Wrap(services.ErrValidation, "imagestore", "sniff", fmt.Sprintf("unsupported image type %s", mime), nil)
	}
	return Image{MIME: mime, Extension: detected.Extension(), Data: data}, nil
}

func tooLarge(size int) error {
	msg := fmt.Sprintf("image is %s; limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(MaxImageBytes))
	return services.Wrap(services.ErrValidation, "imagestore", "parse data uri", msg, nil)
}
