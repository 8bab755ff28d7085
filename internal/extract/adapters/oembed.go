package adapters

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/fetch"
)

// NewOEmbedStrategy queries a standard oEmbed endpoint. token is sent as
// access_token when set.
func NewOEmbedStrategy(name string, fetcher *fetch.Fetcher, endpoint, token string, timeout time.Duration) Strategy {
	return Strategy{
		Name: name,
		Attempt: func(ctx context.Context, rawURL string) (extract.Content, error) {
			if endpoint == "" {
				return extract.Content{}, errEmptyEndpoint
			}

			q := url.Values{"url": {rawURL}, "format": {"json"}}
			if token != "" {
				q.Set("access_token", token)
			}
			sep := "?"
			if strings.Contains(endpoint, "?") {
				sep = "&"
			}

			var payload oembedPayload
			if err := fetcher.GetJSON(ctx, endpoint+sep+q.Encode(), fetch.Options{Timeout: timeout}, &payload); err != nil {
				return extract.Content{}, err
			}

			c := extract.Content{Title: plainText(payload.Title)}
			c.Text = c.Title
			if c.Text == "" {
				c.Text = plainText(payload.AuthorName)
			}
			if payload.ThumbnailURL != "" {
				c.Images = []string{payload.ThumbnailURL}
			}
			return c, nil
		},
	}
}
