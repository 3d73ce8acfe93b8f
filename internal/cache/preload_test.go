package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"photoframe/internal/provider"
)

func testPhotos(n int) []provider.Photo {
	photos := make([]provider.Photo, n)
	for i := range photos {
		photos[i] = provider.Photo{
			ID:    i + 1,
			Space: 0,
			Name:  "photo.jpg",
			URL:   "https://nas.local/thumb",
		}
	}
	return photos
}

func TestPreloadImagesFetchesUncached(t *testing.T) {
	s, err := NewStore(Config{Dir: t.TempDir(), PreloadCount: 3})
	if err != nil {
		t.Fatal(err)
	}

	var calls int32
	download := func(ctx context.Context, p provider.Photo) ([]byte, string, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("bytes"), "jpg", nil
	}

	s.PreloadImages(context.Background(), testPhotos(5), download)

	// Bounded by preload count, not batch length.
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("download calls = %d, want 3", got)
	}
	for i := 1; i <= 3; i++ {
		if _, ok := s.Get("https://nas.local/thumb", i, 0); !ok {
			t.Errorf("photo %d not cached after preload", i)
		}
	}
}

func TestPreloadImagesSkipsCached(t *testing.T) {
	s, err := NewStore(Config{Dir: t.TempDir(), PreloadCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set("https://nas.local/thumb", []byte("cached"), "jpg", 1, 0); err != nil {
		t.Fatal(err)
	}

	var calls int32
	s.PreloadImages(context.Background(), testPhotos(2), func(ctx context.Context, p provider.Photo) ([]byte, string, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("bytes"), "jpg", nil
	})

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("download calls = %d, want 1 (first item already cached)", got)
	}
}

func TestPreloadImagesFailureIsNonFatal(t *testing.T) {
	s, err := NewStore(Config{Dir: t.TempDir(), PreloadCount: 3})
	if err != nil {
		t.Fatal(err)
	}

	s.PreloadImages(context.Background(), testPhotos(3), func(ctx context.Context, p provider.Photo) ([]byte, string, error) {
		if p.ID == 2 {
			return nil, "", errors.New("permission denied")
		}
		return []byte("bytes"), "jpg", nil
	})

	if _, ok := s.Get("https://nas.local/thumb", 1, 0); !ok {
		t.Error("photo 1 missing after a sibling failure")
	}
	if _, ok := s.Get("https://nas.local/thumb", 2, 0); ok {
		t.Error("failed photo 2 unexpectedly cached")
	}
	if _, ok := s.Get("https://nas.local/thumb", 3, 0); !ok {
		t.Error("photo 3 missing after a sibling failure")
	}
}

func TestPreloadReentrancyGuard(t *testing.T) {
	s, err := NewStore(Config{Dir: t.TempDir(), PreloadCount: 1})
	if err != nil {
		t.Fatal(err)
	}

	blocking := make(chan struct{})
	started := make(chan struct{})
	var calls int32

	go s.PreloadImages(context.Background(), testPhotos(1), func(ctx context.Context, p provider.Photo) ([]byte, string, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-blocking
		return []byte("bytes"), "jpg", nil
	})

	<-started

	// Second sweep while the first is in flight must be dropped.
	s.PreloadImages(context.Background(), testPhotos(1), func(ctx context.Context, p provider.Photo) ([]byte, string, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("bytes"), "jpg", nil
	})

	close(blocking)

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := s.Get("https://nas.local/thumb", 1, 0); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first sweep never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("download calls = %d, want 1 (second sweep dropped)", got)
	}
}
