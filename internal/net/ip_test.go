package net

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstIPv4AlwaysHasAnAddress(t *testing.T) {
	ip := firstIPv4()
	require.NotNil(t, ip)
	assert.NotNil(t, ip.To4())
}

func TestShareURLNamesAHost(t *testing.T) {
	url := ShareURL(8080)
	assert.True(t, strings.HasPrefix(url, "http://"))
	assert.True(t, strings.HasSuffix(url, fmt.Sprintf(":%d/", 8080)))
	assert.NotContains(t, url, "<nil>")
	assert.NotContains(t, url, "http://:")
}
