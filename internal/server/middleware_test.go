package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/media/0123abcd…", redactPath("/media/0123abcd-4567-89ef"))
	assert.Equal(t, "/media/short", redactPath("/media/short"))
	assert.Equal(t, "/library/abc/story.txt", redactPath("/library/abc/story.txt"))
}
