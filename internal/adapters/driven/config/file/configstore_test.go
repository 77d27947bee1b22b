package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docquery", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "deep", "config")

	store, err := NewConfigStore(nested)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, "config.toml"), store.Path())

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_MkdirError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/not-a-dir")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("chunking.min_tokens", 300))
	require.NoError(t, store.Set("synthesis.enabled", true))

	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 300, store.GetInt("chunking.min_tokens"))
	assert.True(t, store.GetBool("synthesis.enabled"))

	// Missing keys fall back to zero values.
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))

	// So do type mismatches.
	assert.Equal(t, "", store.GetString("chunking.min_tokens"))
	assert.Equal(t, 0, store.GetInt("embedding.model"))
	assert.False(t, store.GetBool("embedding.model"))
}

func TestConfigStore_GetInt_Int64FromTOML(t *testing.T) {
	store := newTestStore(t)

	// TOML unmarshals integers as int64.
	store.mu.Lock()
	store.values["indexing.batch_size"] = int64(100)
	store.mu.Unlock()

	assert.Equal(t, 100, store.GetInt("indexing.batch_size"))
}

func TestConfigStore_NestedTablesFlattened(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("[chunking]\nmin_tokens = 300\nmax_tokens = 800\n\n[vectorstore]\nprovider = \"chroma\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 300, store.GetInt("chunking.min_tokens"))
	assert.Equal(t, 800, store.GetInt("chunking.max_tokens"))
	assert.Equal(t, "chroma", store.GetString("vectorstore.provider"))
}

func TestConfigStore_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, first.Set("storage.data_dir", "/tmp/docquery"))
	require.NoError(t, first.Set("indexing.rate_limit", 5))

	second, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/docquery", second.GetString("storage.data_dir"))
	assert.Equal(t, 5, second.GetInt("indexing.rate_limit"))
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.provider", "openai"))

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
}

func TestConfigStore_MissingFileStartsEmpty(t *testing.T) {
	store := newTestStore(t)

	val, ok := store.Get("anything")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# empty\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_CorruptTOMLRejected(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not toml ]["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_LoadCorruptTOML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("valid", "data"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("not toml ]["), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_SaveError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("key", "value"))

	// A directory in the file's place makes the write fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("boundary.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
