package xhttp

import (
	"io"

	"github.com/pkg/errors"
)

var ErrMissingFile = errors.New("missing file")

// FormFileBytes reads an uploaded multipart file field into memory.
func FormFileBytes(ctx *RequestCtx, field string) (string, []byte, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, errors.Wrap(ErrMissingFile, err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.Wrap(err, "read upload")
	}
	return fh.Filename, data, nil
}
