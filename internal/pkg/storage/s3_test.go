package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKey(t *testing.T) {
	key, err := ImageKey(12, "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "ads/12/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	_, err = ImageKey(12, "application/pdf")
	assert.Error(t, err)
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client

	_, err := c.PresignPut(context.Background(), "k", "image/png")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.Delete(context.Background(), "k"), ErrDisabled)
	assert.Empty(t, c.PublicURL("k"))
}

func TestPresignPut_CustomEndpoint(t *testing.T) {
	c, err := NewClient(context.Background(), Config{
		Bucket:          "ads",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PresignTTL:      5 * time.Minute,
	})
	require.NoError(t, err)

	up, err := c.PresignPut(context.Background(), "ads/1/x.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "PUT", up.Method)
	assert.True(t, strings.HasPrefix(up.URL, "http://localhost:9000/ads/ads/1/x.jpg"))
	assert.Contains(t, up.URL, "X-Amz-Signature")
	assert.Equal(t, "http://localhost:9000/ads/ads/1/x.jpg", up.PublicURL)
}
