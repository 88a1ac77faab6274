package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/attrition/core"
)

// testStoreContract 覆盖所有 core.Store 实现共同的行为
func testStoreContract(t *testing.T, s core.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "attrition/missing.json")
	require.Error(t, err)
	assert.True(t, core.IsStoreNotFound(err))

	value := []byte(`{"id":"m1"}`)
	require.NoError(t, s.Set(ctx, "attrition/model.json", value))
	value[0] = 'X'

	got, err := s.Get(ctx, "attrition/model.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"m1"}`, string(got), "stored value must not alias the caller's slice")

	require.NoError(t, s.Set(ctx, "attrition/model.json", []byte(`{"id":"m2"}`)))
	got, err = s.Get(ctx, "attrition/model.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"m2"}`, string(got))

	require.NoError(t, s.Delete(ctx, "attrition/model.json"))
	_, err = s.Get(ctx, "attrition/model.json")
	assert.True(t, core.IsStoreNotFound(err))
	require.NoError(t, s.Delete(ctx, "attrition/model.json"), "deleting a missing key is not an error")

	require.NoError(t, s.Close())
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Equal(t, "memory", s.Name())
	testStoreContract(t, s)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", s.Name())
	testStoreContract(t, s)

	// 写入后目录里不留临时文件
	require.NoError(t, s.Set(context.Background(), "a.json", []byte("{}")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.json", "attrition"}, names)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "../escape.json", "/etc/passwd"} {
		err := s.Set(context.Background(), key, []byte("x"))
		require.Error(t, err, key)
		assert.True(t, core.IsInvalidInput(err), key)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ATTRITION_REDIS_ADDR")
	if addr == "" {
		t.Skip("需要设置 ATTRITION_REDIS_ADDR 指向真实的 Redis 才能运行")
	}
	s, err := NewRedisStore(context.Background(), addr, "", 0, "attrition-test:")
	require.NoError(t, err)
	assert.Equal(t, "redis", s.Name())
	testStoreContract(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantCode string
	}{
		{"file", Config{Type: TypeFile, Dir: t.TempDir()}, "file", ""},
		{"memory", Config{Type: TypeMemory}, "memory", ""},
		{"redis without address", Config{Type: TypeRedis}, "", core.ErrorCodeInvalidInput},
		{"unknown", Config{Type: "s3"}, "", core.ErrorCodeNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, core.GetDomainError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, s.Name())
			assert.NoError(t, s.Close())
		})
	}
}
