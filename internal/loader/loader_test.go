package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	type record struct{ Name string }
	var nilMap *map[string]any

	tests := []struct {
		name    string
		input   any
		want    Kind
		wantErr bool
	}{
		{"url string", "/data/parks.json", KindRemote, false},
		{"empty string", "", 0, true},
		{"map", map[string]any{"a": 1}, KindInline, false},
		{"slice", []any{1, 2}, KindInline, false},
		{"array", [2]int{1, 2}, KindInline, false},
		{"struct", record{Name: "x"}, KindInline, false},
		{"pointer to struct", &record{Name: "x"}, KindInline, false},
		{"nil", nil, 0, true},
		{"nil pointer", nilMap, 0, true},
		{"number", 42, 0, true},
		{"func", func() {}, 0, true},
		{"channel", make(chan int), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Classify(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Kind)
		})
	}
}

type postRecorder struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func newPostRecorder() *postRecorder {
	return &postRecorder{wake: make(chan struct{}, 8)}
}

func (p *postRecorder) Post(fn func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()
	p.wake <- struct{}{}
}

func (p *postRecorder) runNext(t *testing.T) {
	t.Helper()
	select {
	case <-p.wake:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted task")
	}
	p.mu.Lock()
	fn := p.tasks[0]
	p.tasks = p.tasks[1:]
	p.mu.Unlock()
	fn()
}

type fetchFunc func(ctx context.Context, url string) (any, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) (any, error) { return f(ctx, url) }

func TestLoader_InlineCompletesSynchronously(t *testing.T) {
	called := false
	l := New(fetchFunc(func(context.Context, string) (any, error) {
		called = true
		return nil, nil
	}), newPostRecorder(), 0)

	var got Result
	l.Load(context.Background(), Source{Kind: KindInline, Inline: []any{"a"}}, func(r Result) { got = r })

	assert.False(t, called, "inline source must not fetch")
	assert.NoError(t, got.Err)
	assert.Equal(t, []any{"a"}, got.Data)
}

func TestLoader_RemotePostsCompletion(t *testing.T) {
	poster := newPostRecorder()
	l := New(fetchFunc(func(_ context.Context, url string) (any, error) {
		return map[string]any{"url": url}, nil
	}), poster, time.Second)

	var got *Result
	l.Load(context.Background(), Source{Kind: KindRemote, URL: "/x.json"}, func(r Result) { got = &r })
	assert.Nil(t, got, "remote completion must be posted, not called inline")

	poster.runNext(t)
	require.NotNil(t, got)
	assert.NoError(t, got.Err)
	assert.Equal(t, map[string]any{"url": "/x.json"}, got.Data)
}

func TestLoader_RemoteTimeout(t *testing.T) {
	poster := newPostRecorder()
	l := New(fetchFunc(func(ctx context.Context, _ string) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), poster, 20*time.Millisecond)

	var got Result
	l.Load(context.Background(), Source{Kind: KindRemote, URL: "/slow"}, func(r Result) { got = r })
	poster.runNext(t)
	assert.True(t, errors.Is(got.Err, context.DeadlineExceeded))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/parks.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"name":"Tingley Beach"}]`))
		case "/data/bad.json":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.Client(), srv.URL+"/")
	require.NoError(t, err)

	t.Run("relative url resolved against base", func(t *testing.T) {
		data, err := f.Fetch(context.Background(), "data/parks.json")
		require.NoError(t, err)
		list, ok := data.([]any)
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("absolute url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/data/parks.json")
		assert.NoError(t, err)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "/missing.json")
		assert.ErrorContains(t, err, "unexpected status 404")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "/data/bad.json")
		assert.ErrorContains(t, err, "decoding")
	})
}
