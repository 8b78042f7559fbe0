package pipeline

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FilterImages keeps only inputs whose content sniffs as an image type.
// Everything else is dropped before batching and never counted, neither as
// processed nor as failed.
func FilterImages(inputs []Input) []Input {
	var images []Input
	for _, input := range inputs {
		if IsImage(input.Data) {
			images = append(images, input)
		}
	}
	return images
}

// IsImage reports whether the bytes carry an image/* content type. The
// check sniffs file content rather than trusting a client-declared type.
func IsImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}
