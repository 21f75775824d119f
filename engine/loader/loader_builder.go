package loader

import "github.com/Carmen-Shannon/oxy-peel/common"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers is an option builder that sets the maximum number of concurrent decodes in LoadAll.
//
// Parameters:
//   - n: worker count (default 2)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithImage is an option builder that pre-populates the image cache.
//
// Parameters:
//   - key: the cache key for the image
//   - img: the decoded image
//
// Returns:
//   - LoaderBuilderOption: a function that applies the image option to a loader
func WithImage(key string, img *common.TextureStagingData) LoaderBuilderOption {
	return func(l *loader) {
		l.imageCache[key] = img
	}
}
