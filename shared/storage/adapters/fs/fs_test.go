package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mockObservability "bingads-extractor/shared/observability/mocks"
	"bingads-extractor/shared/storage/types"
)

func newStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "out", "tables")
	s, err := NewStorage(base, mockObservability.NewNopLogger(), mockObservability.NewNopMetrics())
	require.NoError(t, err)
	return s, base
}

func TestNewStorage(t *testing.T) {
	s, base := newStorage(t)
	assert.NotNil(t, s)
	assert.DirExists(t, base)

	_, err := NewStorage("", mockObservability.NewNopLogger(), mockObservability.NewNopMetrics())
	assert.Error(t, err)
}

func TestStorage_PutGet(t *testing.T) {
	s, base := newStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "", "123/Entities_123.csv", strings.NewReader("Type,Id\nCampaign,1\n"), types.ObjectMetadata{ContentType: "text/csv"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(base, "123", "Entities_123.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Type,Id\nCampaign,1\n", string(data))

	rc, err := s.Get(ctx, "", "123/Entities_123.csv")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(got))
}

func TestStorage_PutOverwrites(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "", "a.csv", strings.NewReader("old"), types.ObjectMetadata{}))
	require.NoError(t, s.Put(ctx, "", "a.csv", strings.NewReader("new"), types.ObjectMetadata{}))

	rc, err := s.Get(ctx, "", "a.csv")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "new", string(got))
}

func TestStorage_RecordsMetrics(t *testing.T) {
	metrics := new(mockObservability.MockMetrics)
	metrics.On("RecordDuration", "storage.fs.put", mock.AnythingOfType("float64")).Once()
	metrics.On("RecordSuccess", "storage.fs.put").Once()

	s, err := NewStorage(t.TempDir(), mockObservability.NewNopLogger(), metrics)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "", "a.csv", strings.NewReader("x"), types.ObjectMetadata{}))
	metrics.AssertExpectations(t)
}

func TestStorage_InvalidKeys(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", ".", "../escape.csv", "a/../../escape.csv", "/etc/passwd"} {
		t.Run(key, func(t *testing.T) {
			err := s.Put(ctx, "", key, strings.NewReader("x"), types.ObjectMetadata{})
			assert.Error(t, err)
		})
	}
}

func TestStorage_ExistsDelete(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "", "a.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "", "a.csv", strings.NewReader("x"), types.ObjectMetadata{}))
	ok, err = s.Exists(ctx, "", "a.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "", "a.csv"))
	require.NoError(t, s.Delete(ctx, "", "a.csv"))

	_, err = s.Get(ctx, "", "a.csv")
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

func TestStorage_List(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	for _, key := range []string{"1/r_1.csv", "1/r_1.csv.manifest", "2/r_2.csv", "top.csv"} {
		require.NoError(t, s.Put(ctx, "", key, strings.NewReader("x"), types.ObjectMetadata{}))
	}

	objects, err := s.List(ctx, "", "1/")
	require.NoError(t, err)
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"1/r_1.csv", "1/r_1.csv.manifest"}, keys)

	all, err := s.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	missing, err := s.List(ctx, "nope", "")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
