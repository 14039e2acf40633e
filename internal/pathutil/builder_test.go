package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathBuilder_Basic(t *testing.T) {
	p := &PathBuilder{}
	p.Push("properties")
	p.Push("name")

	assert.Equal(t, "#/properties/name", p.String())
	assert.Equal(t, 2, p.Depth())
}

func TestPathBuilder_WithIndex(t *testing.T) {
	p := &PathBuilder{}
	p.Push("allOf")
	p.PushIndex(0)
	p.Push("properties")

	assert.Equal(t, "#/allOf/0/properties", p.String())
}

func TestPathBuilder_Escaping(t *testing.T) {
	p := &PathBuilder{}
	p.Push("paths")
	p.Push("/pets/{id}")
	p.Push("x~y")

	assert.Equal(t, "#/paths/~1pets~1{id}/x~0y", p.String())
}

func TestPathBuilder_PushPop(t *testing.T) {
	p := &PathBuilder{}
	p.Push("a")
	p.Push("b")
	p.Pop()
	p.Push("c")

	assert.Equal(t, "#/a/c", p.String())
}

func TestPathBuilder_Empty(t *testing.T) {
	p := &PathBuilder{}
	assert.Equal(t, "#", p.String())

	p.Pop() // Should not panic
	assert.Equal(t, "#", p.String())
}

func TestPathBuilder_Pool(t *testing.T) {
	p := Acquire()
	p.Push("leftover")
	Release(p)

	q := Acquire()
	defer Release(q)
	assert.Equal(t, 0, q.Depth(), "pooled builder should be reset")
	assert.Equal(t, "#", q.String())
}
