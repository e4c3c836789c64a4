package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComponent(t *testing.T) {
	for _, name := range []string{"C1", "C2", "C3"} {
		c, err := ParseComponent(name)
		require.NoError(t, err)
		assert.Equal(t, Component(name), c)
		assert.True(t, IsValidComponent(c))
	}
	for _, name := range []string{"", "c1", "C4"} {
		_, err := ParseComponent(name)
		assert.Error(t, err, name)
	}
}
