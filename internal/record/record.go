// Package record persists what the last successful build consumed and produced.
package record

import (
	"sort"
	"time"

	"github.com/n2code/quire/internal/fragment"
)

type unixTimestamp int64

// Record describes one build. Fragment checksums are keyed by exact manifest path.
type Record struct {
	Manifest          string            //fingerprint of the flattened manifest
	Output            string            //output path relative to the project root, slash-separated
	OutputFingerprint string
	Built             unixTimestamp
	Fragments         map[string]string //path -> checksum
}

func New(manifestFingerprint string, output string, outputFingerprint string, builtAt time.Time) *Record {
	return &Record{
		Manifest:          manifestFingerprint,
		Output:            output,
		OutputFingerprint: outputFingerprint,
		Built:             unixTimestamp(builtAt.Unix()),
		Fragments:         make(map[string]string),
	}
}

// Include notes the checksum of a fragment consumed by the build.
func (r *Record) Include(path string, checksum string) {
	r.Fragments[path] = checksum
}

func (r *Record) BuiltAt() time.Time {
	return time.Unix(int64(r.Built), 0)
}

// Recorded reports the checksum a fragment had at build time.
func (r *Record) Recorded(path string) (checksum string, known bool) {
	checksum, known = r.Fragments[path]
	return
}

// Changed tells whether the fragment content differs from the recorded one. Unrecorded fragments count as changed.
func (r *Record) Changed(f fragment.Fragment) bool {
	checksum, known := r.Fragments[string(f.Path)]
	return !known || checksum != f.Checksum()
}

// Paths lists the recorded fragment paths sorted.
func (r *Record) Paths() []string {
	paths := make([]string, 0, len(r.Fragments))
	for path := range r.Fragments {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Matches tells whether both records describe the same build inputs and output. Build times are ignored.
func (r *Record) Matches(other *Record) bool {
	if r.Manifest != other.Manifest || r.Output != other.Output || r.OutputFingerprint != other.OutputFingerprint {
		return false
	}
	if len(r.Fragments) != len(other.Fragments) {
		return false
	}
	for path, checksum := range r.Fragments {
		if otherChecksum, known := other.Fragments[path]; !known || otherChecksum != checksum {
			return false
		}
	}
	return true
}
