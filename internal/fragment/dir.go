package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DirStore serves fragments from a directory tree. Paths are relative to the root and slash-separated.
type DirStore struct {
	root       string //system-native, as given
	fsys       fs.FS
	extensions map[string]bool //empty means any file
	excluded   map[string]bool //slash paths relative to root, e.g. the build output
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger

	listingMutex sync.Mutex
	listings     map[string]map[string]bool //directory -> exact entry names
}

type DirStoreOption func(*DirStore)

// WithExtensions restricts Paths to files with one of the given extensions (e.g. ".md").
func WithExtensions(extensions ...string) DirStoreOption {
	return func(s *DirStore) {
		for _, ext := range extensions {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.extensions[ext] = true
		}
	}
}

// WithExcluded hides the given root-relative paths from Paths, Resolve is not affected.
func WithExcluded(paths ...string) DirStoreOption {
	return func(s *DirStore) {
		for _, p := range paths {
			if p != "" {
				s.excluded[path.Clean(p)] = true
			}
		}
	}
}

// WithRetries makes Resolve retry failed reads of existing files. Missing files are never retried.
func WithRetries(attempts int, delay time.Duration) DirStoreOption {
	return func(s *DirStore) {
		s.retries = attempts
		s.retryDelay = delay
	}
}

func WithLogger(logger *zap.Logger) DirStoreOption {
	return func(s *DirStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// withFS replaces the backing filesystem, intended for tests.
func withFS(fsys fs.FS) DirStoreOption {
	return func(s *DirStore) {
		s.fsys = fsys
	}
}

func NewDirStore(root string, opts ...DirStoreOption) *DirStore {
	store := &DirStore{
		root:       root,
		fsys:       os.DirFS(root),
		extensions: make(map[string]bool),
		excluded:   make(map[string]bool),
		retryDelay: 50 * time.Millisecond,
		logger:     zap.NewNop(),
		listings:   make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *DirStore) Root() string {
	return s.root
}

func (s *DirStore) Resolve(fragmentPath string) (Fragment, error) {
	if !fs.ValidPath(fragmentPath) || fragmentPath == "." {
		return Fragment{}, notFound(fragmentPath, "not a path inside the fragment root")
	}
	info, err := fs.Stat(s.fsys, fragmentPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fragment{}, notFound(fragmentPath, "")
		}
		return Fragment{}, &LookupError{Path: fragmentPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return Fragment{}, notFound(fragmentPath, "not a regular file")
	}
	exact, err := s.matchesExactly(fragmentPath)
	if err != nil {
		return Fragment{}, &LookupError{Path: fragmentPath, Err: err}
	}
	if !exact {
		return Fragment{}, notFound(fragmentPath, "only a differently cased file exists")
	}

	var content []byte
	for attempt := 0; ; attempt++ {
		content, err = fs.ReadFile(s.fsys, fragmentPath)
		if err == nil || errors.Is(err, fs.ErrNotExist) || attempt >= s.retries {
			break
		}
		s.logger.Warn("retrying fragment read",
			zap.String("path", fragmentPath),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(s.retryDelay * time.Duration(attempt+1))
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fragment{}, notFound(fragmentPath, "vanished while reading")
		}
		return Fragment{}, &LookupError{Path: fragmentPath, Err: fmt.Errorf("reading fragment failed: %w", err)}
	}
	return Fragment{Path: SemanticPath(fragmentPath), Content: content}, nil
}

// matchesExactly guards against case-insensitive filesystems resolving a path that differs in case.
func (s *DirStore) matchesExactly(fragmentPath string) (bool, error) {
	dir := "."
	for _, element := range strings.Split(fragmentPath, "/") {
		names, err := s.listing(dir)
		if err != nil {
			return false, err
		}
		if !names[element] {
			return false, nil
		}
		dir = path.Join(dir, element)
	}
	return true, nil
}

func (s *DirStore) listing(dir string) (map[string]bool, error) {
	s.listingMutex.Lock()
	defer s.listingMutex.Unlock()
	if names, cached := s.listings[dir]; cached {
		return names, nil
	}
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	s.listings[dir] = names
	return names, nil
}

// Forget drops cached directory listings so that files created since are found.
func (s *DirStore) Forget() {
	s.listingMutex.Lock()
	defer s.listingMutex.Unlock()
	s.listings = make(map[string]map[string]bool)
}

func (s *DirStore) Paths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.excluded[p] {
			return nil
		}
		if len(s.extensions) > 0 && !s.extensions[path.Ext(p)] {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing fragments below %s failed: %w", s.root, err)
	}
	return paths, nil
}
