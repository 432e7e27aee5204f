// File: internal/browser/posts.go
package browser

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const htmlMimeType = "text/html"

// destroySteps are clicked in order to delete a post from its editor.
var destroySteps = []string{SelectorPostActions, SelectorDeletePost, SelectorConfirmDelete}

// CreatePost pastes html into a new story, saves it and returns the ID the
// editor assigns once it moves to the post's edit URL.
func (c *Client) CreatePost(ctx context.Context, html string) (string, error) {
	var postID string
	err := c.withTab(ctx, "create", func(ctx context.Context, tab Tab, log *zap.Logger) error {
		if err := SetClipboardData(ctx, tab, htmlMimeType, html); err != nil {
			return err
		}
		if err := tab.Navigate(ctx, c.endpoints.NewStory()); err != nil {
			return transportError("failed to open the new story editor", err)
		}
		if err := replaceEditorContent(ctx, tab); err != nil {
			return err
		}

		matched, err := WaitForPushed(ctx, tab, c.endpoints.EditPattern(), c.postCfg.CreateTimeout, log)
		if err != nil {
			return err
		}
		postID = matched[1]
		log.Info("Post created.", zap.String("post_id", postID))
		return nil
	})
	return postID, err
}

// ReadPost returns the editor body of a post. An error status on the editor
// page itself wins over anything extraction produced.
func (c *Client) ReadPost(ctx context.Context, postID string) (string, error) {
	var html string
	err := c.withTab(ctx, "read", func(ctx context.Context, tab Tab, log *zap.Logger) error {
		editURL := c.endpoints.Edit(postID)
		responses, stop := InterceptResponse(tab, http.MethodGet, editURL)
		defer stop()

		extracted := make(chan struct{})
		var statusErr error

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := tab.Navigate(gctx, editURL); err != nil {
				return transportError("failed to open post editor", err)
			}
			if err := tab.WaitForElement(gctx, SelectorEditorRoot); err != nil {
				return transportError("editor body never appeared", err)
			}
			body, err := tab.InnerHTML(gctx, SelectorEditorRoot)
			if err != nil {
				return transportError("failed to read editor body", err)
			}
			html = body
			close(extracted)
			return nil
		})
		g.Go(func() error {
			var (
				res Response
				ok  bool
			)
			select {
			case res = <-responses:
				ok = true
			case <-extracted:
			case <-gctx.Done():
			}
			if !ok {
				select {
				case res = <-responses:
					ok = true
				default:
				}
			}
			if ok && res.Status >= 400 {
				statusErr = newHTTPError(res.Status)
				return statusErr
			}
			return nil
		})

		err := g.Wait()
		if statusErr != nil {
			return statusErr
		}
		if err != nil {
			return err
		}
		log.Debug("Post read.", zap.String("post_id", postID), zap.Int("bytes", len(html)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// UpdatePost replaces the body of a post with html and saves it. The tab is
// kept open for post.save_settle so the save request can leave it.
func (c *Client) UpdatePost(ctx context.Context, postID, html string) error {
	return c.withTab(ctx, "update", func(ctx context.Context, tab Tab, log *zap.Logger) error {
		if err := SetClipboardData(ctx, tab, htmlMimeType, html); err != nil {
			return err
		}
		if err := tab.Navigate(ctx, c.endpoints.Edit(postID)); err != nil {
			return transportError("failed to open post editor", err)
		}
		if err := replaceEditorContent(ctx, tab); err != nil {
			return err
		}
		if err := Wait(ctx, c.postCfg.SaveSettle); err != nil {
			return err
		}
		log.Info("Post updated.", zap.String("post_id", postID))
		return nil
	})
}

// DestroyPost deletes a post through the editor's post-actions menu and
// returns once the platform answers the DELETE request.
func (c *Client) DestroyPost(ctx context.Context, postID string) error {
	return c.withTab(ctx, "destroy", func(ctx context.Context, tab Tab, log *zap.Logger) error {
		responses, stop := InterceptResponse(tab, http.MethodDelete, c.endpoints.Post(postID))
		defer stop()

		if err := tab.Navigate(ctx, c.endpoints.Edit(postID)); err != nil {
			return transportError("failed to open post editor", err)
		}
		for _, sel := range destroySteps {
			if err := tab.WaitForElement(ctx, sel); err != nil {
				return transportError("waiting for "+sel, err)
			}
			if err := tab.Click(ctx, sel); err != nil {
				return transportError("clicking "+sel, err)
			}
		}

		select {
		case res := <-responses:
			if res.Status >= 400 {
				return newHTTPError(res.Status)
			}
			log.Info("Post destroyed.", zap.String("post_id", postID))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// replaceEditorContent focuses the editor body, selects everything, pastes
// the clipboard over it and saves.
func replaceEditorContent(ctx context.Context, tab Tab) error {
	if err := tab.WaitForElement(ctx, SelectorEditorRoot); err != nil {
		return transportError("editor body never appeared", err)
	}
	if err := tab.Focus(ctx, SelectorEditorRoot); err != nil {
		return transportError("failed to focus editor body", err)
	}
	for _, key := range []string{"a", "v", "s"} {
		if err := Shortcut(ctx, tab, key); err != nil {
			return err
		}
	}
	return nil
}
