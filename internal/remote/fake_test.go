package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeListDirReturnsRegisteredChildren(t *testing.T) {
	f := NewFake()
	f.SetChildren("dir-1", []RemoteChild{
		{UUID: "a", ParentUUID: "dir-1", Type: TypeFile, DecodedName: "a.txt"},
		{UUID: "b", ParentUUID: "dir-1", Type: TypeDirectory, DecodedName: "b"},
	})

	children, err := f.ListDir(context.Background(), "dir-1")
	require.NoError(t, err)
	require.Len(t, children, 2)
}

func TestFakeListDirCountsCalls(t *testing.T) {
	f := NewFake()
	f.SetChildren("dir-1", nil)

	_, _ = f.ListDir(context.Background(), "dir-1")
	_, _ = f.ListDir(context.Background(), "dir-1")

	require.Equal(t, 2, f.ListDirCalls("dir-1"))
}

func TestFakeGetItemNotFound(t *testing.T) {
	f := NewFake()
	_, err := f.GetItem(context.Background(), "missing")
	require.Error(t, err)
}

func TestFakeDecodeUnregisteredStaysEncrypted(t *testing.T) {
	f := NewFake()
	_, ok, err := f.Decode(context.Background(), []byte("ciphertext"), 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFakeDecodeRegisteredSucceeds(t *testing.T) {
	f := NewFake()
	f.SetDecodable([]byte("ciphertext"), DecodedMetadata{Name: "hello.txt"})

	meta, ok, err := f.Decode(context.Background(), []byte("ciphertext"), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello.txt", meta.Name)
}

func TestFakeSearchFiltersByNameSubstring(t *testing.T) {
	f := NewFake()
	f.SetSearchMatches([]RemoteMatch{
		{Child: RemoteChild{UUID: "1", DecodedName: "report.pdf", Type: TypeFile}},
		{Child: RemoteChild{UUID: "2", DecodedName: "photo.jpg", Type: TypeFile}},
	})

	matches, err := f.Search(context.Background(), SearchQuery{NameSubstring: "report"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "1", matches[0].Child.UUID)
}

func TestFakeRespectsContextCancellation(t *testing.T) {
	f := NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ListDir(ctx, "x")
	require.Error(t, err)
}
