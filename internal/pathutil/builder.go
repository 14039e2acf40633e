package pathutil

import (
	"strconv"
	"sync"

	"github.com/jamesseanwright/json-schema-deref-sync/pointer"
)

// PathBuilder provides incremental JSON Pointer construction.
// Segments are stored unescaped; escaping happens in String().
type PathBuilder struct {
	segments []string
}

// Push adds an object key segment to the path.
func (p *PathBuilder) Push(segment string) {
	p.segments = append(p.segments, segment)
}

// PushIndex adds an array index segment.
func (p *PathBuilder) PushIndex(i int) {
	p.segments = append(p.segments, strconv.Itoa(i))
}

// Pop removes the last segment.
func (p *PathBuilder) Pop() {
	if len(p.segments) == 0 {
		return
	}
	p.segments = p.segments[:len(p.segments)-1]
}

// Reset clears the builder for reuse.
func (p *PathBuilder) Reset() {
	p.segments = p.segments[:0]
}

// Depth returns the number of segments.
func (p *PathBuilder) Depth() int {
	return len(p.segments)
}

// String materializes the pointer in fragment form, e.g. "#/a/b~1c".
// The empty path is "#".
func (p *PathBuilder) String() string {
	return pointer.Format(p.segments)
}

// builders recycles PathBuilders between document scans.
var builders = sync.Pool{
	New: func() any { return &PathBuilder{segments: make([]string, 0, 16)} },
}

// maxPooledSegments bounds the capacity of builders kept in the pool.
const maxPooledSegments = 128

// Acquire returns an empty PathBuilder from the shared pool.
func Acquire() *PathBuilder {
	p := builders.Get().(*PathBuilder)
	p.Reset()
	return p
}

// Release returns p to the pool. It is a no-op for nil or oversized builders.
func Release(p *PathBuilder) {
	if p != nil && cap(p.segments) <= maxPooledSegments {
		builders.Put(p)
	}
}
