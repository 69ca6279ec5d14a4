package mnistae

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	s := makeStatistics()
	_, _, ok := s.Last()
	assert.False(t, ok)
	_, _, ok = s.Best()
	assert.False(t, ok)

	s.update(0, 0.5, noLoss)
	s.update(500, 0.25, 0.375)
	s.update(1000, 0.375, noLoss)

	step, loss, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 1000, step)
	assert.Equal(t, float32(0.375), loss)

	step, loss, ok = s.Best()
	assert.True(t, ok)
	assert.Equal(t, 500, step)
	assert.Equal(t, float32(0.25), loss)

	filename := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, s.Dump(filename))
	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "step,loss,validation_loss\n0,0.5,\n500,0.25,0.375\n1000,0.375,\n", string(b))
}
