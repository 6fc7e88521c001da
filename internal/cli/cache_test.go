package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/causalog/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	c := newTestCLI(t)

	want := filepath.Join(t.TempDir(), "custom")
	c.Config.Cache.Dir = want
	if got := c.cacheDir(); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}

	c.Config.Cache.Dir = ""
	if got := c.cacheDir(); !strings.HasSuffix(got, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", got, appName)
	}
}

func TestCachePath(t *testing.T) {
	env := setupEnv(t)
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(env.cacheHome, appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClear(t *testing.T) {
	env := setupEnv(t)

	fc, err := cache.NewFileCache(filepath.Join(env.cacheHome, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 3 cached entries") {
		t.Errorf("unexpected output: %q", out)
	}
	if _, hit, _ := fc.Get(ctx, "a"); hit {
		t.Error("entry should be gone after clear")
	}
}

func TestCacheClearEmpty(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("unexpected output: %q", out)
	}
}
