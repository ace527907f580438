package fragment

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// SemanticPath is slash-separated regardless of OS and doubles as the store key.
type SemanticPath string

func (p SemanticPath) ToNativeFilepath() string {
	return filepath.FromSlash(string(p))
}

func SemanticPathFromNative(nativePath string) SemanticPath {
	return SemanticPath(filepath.ToSlash(nativePath))
}

// Base is the last element of the path, used for homonym detection only, never for lookup.
func (p SemanticPath) Base() string {
	return path.Base(string(p))
}

// Fragment is a unit of static text content stored at a path.
type Fragment struct {
	Path    SemanticPath
	Content []byte
}

// Checksum is the 16 hex character xxh3 hash of the content.
func (f Fragment) Checksum() string {
	return Checksum(f.Content)
}

func Checksum(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// Resolver returns the fragment stored at exactly the given path.
type Resolver interface {
	Resolve(path string) (Fragment, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(path string) (Fragment, error)

func (f ResolverFunc) Resolve(path string) (Fragment, error) {
	return f(path)
}

// Store is a Resolver that can also enumerate all of its fragments.
type Store interface {
	Resolver
	// Paths lists every fragment path in lexical order.
	Paths() ([]string, error)
}
