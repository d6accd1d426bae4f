package media_test

import (
	"strings"
	"testing"

	"feedsync/media"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyIsUniquePerUpload(t *testing.T) {
	a := media.ObjectKey("pic.png")
	b := media.ObjectKey("pic.png")
	assert.NotEqual(t, a, b, "same file name must not collide")
	assert.True(t, strings.HasSuffix(a, "-pic.png"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:9000/post-media/abc-pic.png",
		media.PublicURL("http://localhost:9000", "post-media", "abc-pic.png"))
	assert.Equal(t,
		"http://localhost:9000/post-media/abc-pic.png",
		media.PublicURL("http://localhost:9000/", "post-media", "abc-pic.png"))
}
