// Package loader resolves a layer's data payload, either from an inline
// structure or by fetching a remote JSON document.
package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Kind classifies a data source.
type Kind int

const (
	KindRemote Kind = iota + 1
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// ErrUnsupportedSource is wrapped by Classify for inputs that are neither a
// locator string nor a structured value.
var ErrUnsupportedSource = errors.New("unsupported data source")

// Source is a classified layer data source.
type Source struct {
	Kind   Kind
	URL    string
	Inline any
}

// Classify accepts a string locator or a structured value (map, slice, array,
// struct, or a pointer to one of those).
func Classify(v any) (Source, error) {
	if s, ok := v.(string); ok {
		if s == "" {
			return Source{}, fmt.Errorf("%w: empty locator", ErrUnsupportedSource)
		}
		return Source{Kind: KindRemote, URL: s}, nil
	}
	if v == nil {
		return Source{}, fmt.Errorf("%w: nil", ErrUnsupportedSource)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Source{}, fmt.Errorf("%w: nil %s", ErrUnsupportedSource, rv.Type())
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return Source{Kind: KindInline, Inline: v}, nil
	}
	return Source{}, fmt.Errorf("%w: %T", ErrUnsupportedSource, v)
}

// Fetcher retrieves a JSON-compatible document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (any, error)
}

// Poster schedules a function on the owning event loop.
type Poster interface {
	Post(fn func())
}

// Loader resolves sources and reports completion on a loop.
type Loader struct {
	fetcher Fetcher
	loop    Poster
	timeout time.Duration
}

// New creates a loader. A zero timeout disables the per-load deadline.
func New(fetcher Fetcher, loop Poster, timeout time.Duration) *Loader {
	return &Loader{fetcher: fetcher, loop: loop, timeout: timeout}
}

// Result is delivered exactly once per Load call.
type Result struct {
	Data     any
	Err      error
	Duration time.Duration
}

// Load resolves src. Inline sources complete synchronously; remote sources
// are fetched on a new goroutine and done is posted to the loop. done
// always runs on the loop's goroutine for remote sources.
func (l *Loader) Load(ctx context.Context, src Source, done func(Result)) {
	switch src.Kind {
	case KindInline:
		done(Result{Data: src.Inline})
	case KindRemote:
		if l.fetcher == nil {
			done(Result{Err: errors.New("no fetcher configured")})
			return
		}
		go func() {
			fctx := ctx
			if l.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, l.timeout)
				defer cancel()
			}
			start := time.Now()
			data, err := l.fetcher.Fetch(fctx, src.URL)
			res := Result{Data: data, Err: err, Duration: time.Since(start)}
			l.loop.Post(func() { done(res) })
		}()
	default:
		done(Result{Err: fmt.Errorf("%w: kind %s", ErrUnsupportedSource, src.Kind)})
	}
}
