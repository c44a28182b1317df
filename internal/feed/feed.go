// package feed computes the reverse-chronological post set visible to a viewer.
//
// Feeds are fan-out-on-read: nothing is materialized at write time. The
// visible author set is the viewer plus the accounts the viewer follows.
// Following is one-directional, so a post from someone who follows the
// viewer (but is not followed back) never appears.
package feed

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
)

// Generator assembles feeds from the follow graph and the post store.
type Generator struct {
	graph  *repositories.GraphRepository
	posts  *repositories.PostRepository
	logger *log.Logger
}

// NewGenerator creates a feed [Generator] over the given repositories.
func NewGenerator(graph *repositories.GraphRepository, posts *repositories.PostRepository, logger *log.Logger) *Generator {
	return &Generator{graph: graph, posts: posts, logger: logger}
}

// Generate returns every post visible to the viewer, most recently
// modified first, ties broken by id descending.
func (g *Generator) Generate(viewerID string) ([]*models.Post, error) {
	return g.page(viewerID, 0, nil)
}

// Page returns at most limit visible posts strictly older than the
// cursor. A nil cursor starts from the top; limit 0 means no limit. The
// visibility rule is identical to [Generator.Generate].
func (g *Generator) Page(viewerID string, limit int, cursor *repositories.PostCursor) ([]*models.Post, error) {
	return g.page(viewerID, limit, cursor)
}

func (g *Generator) page(viewerID string, limit int, cursor *repositories.PostCursor) ([]*models.Post, error) {
	follows, err := g.graph.Follows(viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve follow set: %w", err)
	}

	authors := append([]string{viewerID}, follows...)

	posts, err := g.posts.ListByAuthors(authors, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed posts: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug("generated feed", "viewer", viewerID, "authors", len(authors), "posts", len(posts))
	}

	return posts, nil
}

// NextCursor returns the pagination cursor after the given page, or nil
// when the page is empty.
func NextCursor(page []*models.Post) *repositories.PostCursor {
	if len(page) == 0 {
		return nil
	}
	last := page[len(page)-1]
	return &repositories.PostCursor{UpdatedAt: last.UpdatedAt(), ID: last.ID()}
}
