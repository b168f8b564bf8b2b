package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "profast/pkg/domain-errors"
)

func TestParsePage(t *testing.T) {
	t.Run("empty values mean unbounded", func(t *testing.T) {
		p, err := ParsePage("", "")
		require.NoError(t, err)
		assert.Equal(t, Page{}, p)
	})

	t.Run("limit is capped", func(t *testing.T) {
		p, err := ParsePage("10000", "5")
		require.NoError(t, err)
		assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 5}, p)
	})

	t.Run("rejects negative or non-numeric values", func(t *testing.T) {
		for _, tc := range [][2]string{{"-1", ""}, {"abc", ""}, {"", "-3"}, {"", "x"}} {
			_, err := ParsePage(tc[0], tc[1])
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, items, Window(items, Page{}))
	assert.Equal(t, []int{3, 4}, Window(items, Page{Limit: 2, Offset: 2}))
	assert.Equal(t, []int{5}, Window(items, Page{Limit: 10, Offset: 4}))
	assert.Empty(t, Window(items, Page{Offset: 9}))
}
