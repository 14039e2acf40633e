package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert.Equal(t, 0, run([]string{"version"}))
	assert.Equal(t, 1, run([]string{"no-such-command"}))
	assert.Equal(t, 1, run([]string{"deref"}))
}
