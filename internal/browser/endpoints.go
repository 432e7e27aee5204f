// File: internal/browser/endpoints.go
package browser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Editor and post-actions selectors.
const (
	SelectorEditorRoot    = "div.section-inner"
	SelectorPostActions   = `button[data-action="show-post-actions-popover"]`
	SelectorDeletePost    = `button[data-action="delete-post"]`
	SelectorConfirmDelete = `button[data-action="overlay-confirm"]`
)

// DefaultBaseURL is the platform origin.
const DefaultBaseURL = "https://medium.com"

// Endpoints builds the platform URLs for one origin.
type Endpoints struct {
	base        string
	editPattern *regexp.Regexp
}

// NewEndpoints validates baseURL and derives every URL from it. A trailing
// slash is ignored.
func NewEndpoints(baseURL string) (*Endpoints, error) {
	base := strings.TrimRight(baseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url, got %q", baseURL)
	}

	pattern, err := regexp.Compile(`^` + regexp.QuoteMeta(base) + `/p/([\w\d]+)/edit$`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile edit url pattern: %w", err)
	}
	return &Endpoints{base: base, editPattern: pattern}, nil
}

func (e *Endpoints) Base() string     { return e.base }
func (e *Endpoints) SignIn() string   { return e.base + "/m/signin" }
func (e *Endpoints) Home() string     { return e.base + "/" }
func (e *Endpoints) NewStory() string { return e.base + "/new-story" }

// Edit is the editor URL for a post. Reading, updating and deleting all start here.
func (e *Endpoints) Edit(postID string) string { return e.base + "/p/" + postID + "/edit" }

// Post is the canonical post URL. A successful delete issues DELETE against it.
func (e *Endpoints) Post(postID string) string { return e.base + "/p/" + postID }

// EditPattern matches an editor URL; group 1 is the post ID.
func (e *Endpoints) EditPattern() *regexp.Regexp { return e.editPattern }
