package camera

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
)

const dataURLPrefix = "data:image/jpeg;base64,"

// rgbToImage draws a packed rgb24 frame into an RGBA raster of the same size.
func rgbToImage(data []byte, width, height int) (*image.RGBA, error) {
	if len(data) != width*height*3 {
		return nil, fmt.Errorf("frame size %d does not match %dx%d rgb24", len(data), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
		img.Pix[j] = data[i]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

func encodeDataURL(img image.Image, quality int) (string, error) {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// NormalizeDataURL turns a bare base64 payload into a JPEG data URL.
func NormalizeDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return dataURLPrefix + image
}

// StripDataURL returns the base64 payload of a data URL.
func StripDataURL(image string) string {
	if strings.HasPrefix(image, "data:") {
		if i := strings.IndexByte(image, ','); i >= 0 {
			return image[i+1:]
		}
	}
	return image
}
