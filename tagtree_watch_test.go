package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestLoadTreeFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tree.json")
	writeFile(t, jsonPath, `{"name":"from json","children":[{"name":"a","data":"x"}]}`)
	root, err := LoadTreeFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from json", root.Name)

	yamlPath := filepath.Join(dir, "tree.yml")
	writeFile(t, yamlPath, "name: from yaml\n")
	root, err = LoadTreeFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from yaml", root.Name)

	htmlPath := filepath.Join(dir, "tree.html")
	writeFile(t, htmlPath, `<ul><li><span class="name">from html</span></li></ul>`)
	root, err = LoadTreeFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "from html", root.Name)

	_, err = LoadTreeFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	badPath := filepath.Join(dir, "bad.json")
	writeFile(t, badPath, "{")
	_, err = LoadTreeFile(badPath)
	assert.ErrorContains(t, err, badPath)
}

func TestTreeWatcherReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "tree.json")
	writeFile(t, path, `{"name":"first"}`)

	root, err := LoadTreeFile(path)
	require.NoError(t, err)
	core := NewTagTreeCore(root, zaptest.NewLogger(t))

	changes := make(chan Node, 10)
	core.OnChange(func(tree Node) {
		changes <- tree
	})

	watcher, err := NewTreeWatcher(path, core, zaptest.NewLogger(t))
	require.NoError(t, err)
	watcher.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()

	// an unrelated file in the same directory is ignored
	writeFile(t, filepath.Join(filepath.Dir(path), "other.json"), `{"name":"other"}`)

	// a broken write keeps the current tree
	writeFile(t, path, "{")
	time.Sleep(100 * time.Millisecond)
	tree, _ := core.GetTree()
	assert.Equal(t, "first", tree.Name)

	writeFile(t, path, `{"name":"second","children":[{"name":"leaf","data":"d"}]}`)

	select {
	case tree := <-changes:
		assert.Equal(t, "second", tree.Name)
		require.Len(t, tree.Children, 1)
		assert.NotEmpty(t, tree.Children[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("tree was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewTreeWatcherMissingDirectory(t *testing.T) {
	core := NewTagTreeCore(sampleTree(), nil)
	_, err := NewTreeWatcher(filepath.Join(t.TempDir(), "nope", "tree.json"), core, nil)
	assert.Error(t, err)
}
