package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserDetail(t *testing.T) {
	assert.Equal(t, "/users/abc123", UserDetail("abc123"))
}
