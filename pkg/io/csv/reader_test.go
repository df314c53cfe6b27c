package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLabeled(t *testing.T) {
	path := writeTemp(t, "amount,hour,label\n10.5,3,0\n2000,2,1\n7,14,0\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"amount", "hour"}, r.FeatureNames())

	x, y, err := r.ReadLabeled()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{10.5, 3}, {2000, 2}, {7, 14}}, x)
	assert.Equal(t, []int{0, 1, 0}, y)
}

func TestReadLabeledCustomColumn(t *testing.T) {
	path := writeTemp(t, "label,amount\n1,2000\n0,7\n")

	r, err := NewReader(path, WithLabelColumn(0))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"amount"}, r.FeatureNames())

	x, y, err := r.ReadLabeled()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2000}, {7}}, x)
	assert.Equal(t, []int{1, 0}, y)
}

func TestReadLabeledRejectsBadLabel(t *testing.T) {
	path := writeTemp(t, "a,b,label\n1,2,3\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.ReadLabeled()
	assert.Error(t, err)
}

func TestReadWithoutHeader(t *testing.T) {
	path := writeTemp(t, "1,2\n3,4\n")

	r, err := NewReader(path, WithHeader(false))
	require.NoError(t, err)
	defer r.Close()

	assert.Nil(t, r.FeatureNames())

	data, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, data)
}

func TestReadSkipsMalformedRows(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\nx,y\n3,4\n")

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, data)
}

func TestMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
