//go:build !cgo

package embedding

import "context"

// FastEmbed is unavailable without cgo
type FastEmbed struct{}

func NewFastEmbed(modelName, cacheDir string) (*FastEmbed, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (f *FastEmbed) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (f *FastEmbed) Dimensions() int {
	return 0
}

func (f *FastEmbed) Close() error {
	return nil
}
