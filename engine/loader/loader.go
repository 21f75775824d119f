package loader

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-peel/common"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	imageCache map[string]*common.TextureStagingData

	workers int
	pool    worker.DynamicWorkerPool

	backend imageBackend
}

// Loader defines the public-facing interface for decoding and caching images.
// It sniffs the encoding behind a generic backend, tags each result with its
// format (flat or panoramic), and caches decoded pixels by name.
type Loader interface {
	// Decode sniffs and decodes encoded image bytes and caches the result under name.
	//
	// Parameters:
	//   - name: the cache key for the decoded image
	//   - data: the encoded image bytes
	//
	// Returns:
	//   - *common.TextureStagingData: the decoded pixels and format tag
	//   - error: wraps common.ErrImageFormatUnrecognized or common.ErrImageDecodeFailed
	Decode(name string, data []byte) (*common.TextureStagingData, error)

	// Load reads an image file and decodes it, caching by name.
	// If the image is already cached, the cached version is returned.
	//
	// Parameters:
	//   - name: the cache key for the decoded image
	//   - path: the file path to read
	//
	// Returns:
	//   - *common.TextureStagingData: the decoded pixels and format tag
	//   - error: error if reading or decoding fails
	Load(name, path string) (*common.TextureStagingData, error)

	// LoadAll loads every name -> path entry concurrently on the loader's worker pool.
	// All entries are attempted; the returned error joins every failure.
	//
	// Parameters:
	//   - paths: image file paths keyed by cache name
	//
	// Returns:
	//   - map[string]*common.TextureStagingData: the successfully decoded images
	//   - error: joined errors of failed entries, or nil
	LoadAll(paths map[string]string) (map[string]*common.TextureStagingData, error)

	// Close stops the worker pool started by LoadAll. Closing twice, or without ever calling
	// LoadAll, is a no-op; a later LoadAll starts a new pool.
	Close()

	// Get retrieves a cached image by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *common.TextureStagingData: the cached image or nil
	Get(name string) *common.TextureStagingData
}

var _ Loader = &loader{}

// NewLoader creates a new Loader backed by the standard image decoders.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the newly created loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		imageCache: make(map[string]*common.TextureStagingData),
		workers:    2,
		backend:    standardImageBackend{},
	}
	for _, option := range options {
		option(l)
	}
	if l.workers < 1 {
		l.workers = 1
	}
	return l
}

// workerPool returns the decode pool, starting it on first use.
func (l *loader) workerPool() worker.DynamicWorkerPool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 16, 1*time.Second)
	}
	return l.pool
}

func (l *loader) Close() {
	l.mu.Lock()
	pool := l.pool
	l.pool = nil
	l.mu.Unlock()
	if pool != nil {
		pool.Stop()
	}
}

func (l *loader) Decode(name string, data []byte) (*common.TextureStagingData, error) {
	format, err := l.backend.Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %q: %w", name, err)
	}
	img, err := l.backend.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %q: %w", name, err)
	}

	l.mu.Lock()
	l.imageCache[name] = img
	l.mu.Unlock()
	return img, nil
}

func (l *loader) Load(name, path string) (*common.TextureStagingData, error) {
	if img := l.Get(name); img != nil {
		return img, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file %s: %w", path, err)
	}
	img, err := l.Decode(name, data)
	if err != nil {
		return nil, err
	}
	log.Printf("[Loader] decoded %s (%s, %dx%d)", path, img.Format, img.Width, img.Height)
	return img, nil
}

func (l *loader) LoadAll(paths map[string]string) (map[string]*common.TextureStagingData, error) {
	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		results = make(map[string]*common.TextureStagingData, len(paths))
		errs    []error
		taskID  int
	)

	pool := l.workerPool()
	for name, path := range paths {
		wg.Add(1)
		id := taskID
		taskID++
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				img, err := l.Load(name, path)

				resMu.Lock()
				defer resMu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return nil, err
				}
				results[name] = img
				return img, nil
			},
		})
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

func (l *loader) Get(name string) *common.TextureStagingData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.imageCache[name]
}
