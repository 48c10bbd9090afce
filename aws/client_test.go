package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", PublicURL("https://cdn.example.com/", "", "b", "r"))
	assert.Equal(t, "http://minio:9000/images", PublicURL("", "http://minio:9000/", "images", "us-east-1"))
	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com", PublicURL("", "", "images", "eu-west-1"))
}

func TestKeyFromURL(t *testing.T) {
	s := &S3Client{PublicURL: "https://cdn.example.com"}

	key, ok := s.KeyFromURL(s.URL("recipes/abc.png"))
	assert.True(t, ok)
	assert.Equal(t, "recipes/abc.png", key)

	_, ok = s.KeyFromURL("https://res.cloudinary.com/demo/image/upload/x.png")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)
}
