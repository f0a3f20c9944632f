package imageinput

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

const DefaultMaxBytes = 25 << 20

// Source is one file waiting to be encoded.
type Source struct {
	Name     string
	MimeType string
	Open     func() (io.ReadCloser, error)
}

type Result struct {
	Image EncodedImage
	Err   error
}

// Read consumes r to completion and encodes it. Content that does not
// resolve to an image/* mime type is rejected with ErrNotImage.
func Read(ctx context.Context, r io.Reader, declaredMime string, limit int64) (EncodedImage, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if err := ctx.Err(); err != nil {
		return EncodedImage{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("read image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return EncodedImage{}, err
	}
	if int64(len(data)) > limit {
		return EncodedImage{}, ErrTooLarge
	}
	if len(data) == 0 {
		return EncodedImage{}, ErrEmpty
	}

	mimeType := ResolveMime(declaredMime, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return EncodedImage{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return New(data, mimeType), nil
}

// ReadDataURI decodes a data URI and applies the same checks as Read.
func ReadDataURI(value string, limit int64) (EncodedImage, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	// base64 inflates by 4/3; reject before decoding.
	if int64(len(value)) > limit/3*4+1024 {
		return EncodedImage{}, ErrTooLarge
	}

	img, err := ParseDataURI(value)
	if err != nil {
		return EncodedImage{}, err
	}
	if int64(len(img.Data)) > limit {
		return EncodedImage{}, ErrTooLarge
	}
	if len(img.Data) == 0 {
		return EncodedImage{}, ErrEmpty
	}

	mimeType := ResolveMime(img.MimeType, img.Data)
	if !strings.HasPrefix(mimeType, "image/") {
		return EncodedImage{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return New(img.Data, mimeType), nil
}

// ReadAsync runs Read in its own goroutine. The channel receives exactly one
// Result and is then closed.
func ReadAsync(ctx context.Context, r io.Reader, declaredMime string, limit int64) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		img, err := Read(ctx, r, declaredMime, limit)
		out <- Result{Image: img, Err: err}
	}()
	return out
}

// ReadMany encodes all sources concurrently. The returned slice is in the
// same order as sources; the first failure cancels the rest.
func ReadMany(ctx context.Context, sources []Source, limit int64) ([]EncodedImage, error) {
	images := make([]EncodedImage, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		eg.Go(func() error {
			if src.Open == nil {
				return fmt.Errorf("%s: no reader", src.Name)
			}
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			defer rc.Close()

			img, err := Read(egCtx, rc, src.MimeType, limit)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
