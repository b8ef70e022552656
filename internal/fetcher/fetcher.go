// Package fetcher defines the contract for retrieving a single remote
// document. Adapters depend on this interface rather than an HTTP client
// so tests can substitute canned documents and so JS-rendered sources can
// swap in a headless implementation.
package fetcher

import "context"

// Fetcher retrieves one document by URL and returns its body.
// A non-2xx response or transport failure is returned as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
