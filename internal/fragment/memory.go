package fragment

import (
	"sort"
	"sync"
)

// MemoryStore keeps fragments in a map keyed by full path. It is safe for concurrent use.
type MemoryStore struct {
	mutex     sync.RWMutex
	fragments map[string][]byte
}

func NewMemoryStore(contents map[string]string) *MemoryStore {
	store := &MemoryStore{fragments: make(map[string][]byte, len(contents))}
	for path, content := range contents {
		store.fragments[path] = []byte(content)
	}
	return store
}

// Put adds or replaces the fragment at the given path.
func (s *MemoryStore) Put(path string, content []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fragments[path] = append([]byte(nil), content...)
}

func (s *MemoryStore) Resolve(path string) (Fragment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	content, exists := s.fragments[path]
	if !exists {
		return Fragment{}, notFound(path, "")
	}
	return Fragment{Path: SemanticPath(path), Content: append([]byte(nil), content...)}, nil
}

func (s *MemoryStore) Paths() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	paths := make([]string, 0, len(s.fragments))
	for path := range s.fragments {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
