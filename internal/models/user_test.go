// internal/models/user_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfessional_WithAward(t *testing.T) {
	t.Run("first rating is the score", func(t *testing.T) {
		got := Professional{ID: "pro-1"}.WithAward(79)

		require.NotNil(t, got.AverageRating)
		assert.Equal(t, 79.0, *got.AverageRating)
		assert.Equal(t, 1, got.TotalBids)
		assert.Equal(t, 1, got.SuccessfulBids)
	})

	t.Run("incremental average", func(t *testing.T) {
		old := 4.8
		pro := Professional{ID: "pro-1", AverageRating: &old, TotalBids: 10, SuccessfulBids: 8}

		got := pro.WithAward(79)

		assert.Equal(t, 11, got.TotalBids)
		assert.Equal(t, 9, got.SuccessfulBids)
		assert.InDelta(t, (4.8*10+79)/11, *got.AverageRating, 1e-9)
		assert.Equal(t, 4.8, *pro.AverageRating, "receiver is not modified")
	})
}
