package coupon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/pkg/logger"
)

// realBases returns the coupon bases named by COUPON_FILES, skipping the
// test when they are not available.
func realBases(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping real file test in short mode")
	}

	var paths []string
	for _, p := range strings.Split(os.Getenv("COUPON_FILES"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		t.Skip("skipping test: COUPON_FILES is not set")
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Skipf("skipping test: coupon base %s not found", p)
		}
	}
	return paths
}

func TestValidator_RealFiles(t *testing.T) {
	paths := realBases(t)

	v := NewValidator(WithLogger(logger.New("error")))
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, v.LoadFromFiles(ctx, paths))
	t.Logf("loaded %v coupons from %d files in %v", v.GetStats()["total_coupons"], len(paths), time.Since(start))

	for _, code := range []string{"HAPPYHRS", "FIFTYOFF", "SUPER100", "NOTEXIST", "SHORT"} {
		start := time.Now()
		valid := v.IsValid(ctx, code)
		t.Logf("IsValid(%q) = %v (took %v)", code, valid, time.Since(start))
	}
}

func BenchmarkValidator_IsValid(b *testing.B) {
	dir := b.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		var sb strings.Builder
		prefix := strings.Repeat(string(rune('A'+i)), 4)
		for n := 0; n < 10000; n++ {
			fmt.Fprintf(&sb, "%s%04d\n", prefix, n)
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("base%d", i+1))
		require.NoError(b, os.WriteFile(paths[i], []byte(sb.String()), 0o644))
	}

	v := NewValidator(WithLogger(logger.New("error")))
	require.NoError(b, v.LoadFromFiles(context.Background(), paths))

	codes := []string{"AAAA0001", "BBBB0002", "NOTEXIST", "ZZZZ9999"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.IsValid(context.Background(), codes[i%len(codes)])
	}
}
