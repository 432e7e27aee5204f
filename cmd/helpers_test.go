// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/browser"
	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/observability"
)

// fakeClient keeps posts in memory.
type fakeClient struct {
	mu     sync.Mutex
	posts  map[string]string
	nextID int
	// rewrite, when set, is applied to stored HTML on read.
	rewrite func(string) string
	err     error
	closed  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{posts: make(map[string]string)}
}

func (f *fakeClient) CreatePost(_ context.Context, html string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	id := fmt.Sprintf("a1b2c3%d", f.nextID)
	f.posts[id] = html
	return id, nil
}

func (f *fakeClient) ReadPost(_ context.Context, postID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	html, ok := f.posts[postID]
	if !ok {
		return "", &browser.HTTPError{Status: 410, Reason: "Gone"}
	}
	if f.rewrite != nil {
		html = f.rewrite(html)
	}
	return html, nil
}

func (f *fakeClient) UpdatePost(_ context.Context, postID, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.posts[postID] = html
	return nil
}

func (f *fakeClient) DestroyPost(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[postID]; !ok {
		return &browser.HTTPError{Status: 404, Reason: "Not Found"}
	}
	delete(f.posts, postID)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// useFakeClient routes openClient to fake and records the config each
// command was started with.
func useFakeClient(t *testing.T, fake *fakeClient) *[]config.Interface {
	t.Helper()
	original := openClient
	var seen []config.Interface
	openClient = func(_ context.Context, cfg config.Interface, _ *zap.Logger) (postClient, error) {
		seen = append(seen, cfg)
		return fake, nil
	}
	t.Cleanup(func() { openClient = original })
	return &seen
}

// executeCommand runs a fresh command tree with args and stdin, returning stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	t.Setenv("MEDIUMCTL_LOGGER_LEVEL", "fatal")

	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
