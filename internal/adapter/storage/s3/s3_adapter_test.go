package s3

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyKeepsExtension(t *testing.T) {
	a := ObjectKey("Bike.JPG")
	b := ObjectKey("Bike.JPG")

	assert.True(t, strings.HasPrefix(a, "listings/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
}

func TestObjectKeyWithoutExtension(t *testing.T) {
	k := ObjectKey("photo")
	assert.Len(t, k, len("listings/")+36)
}
