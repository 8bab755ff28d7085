package adapters

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/fetch"
)

var errNoPost = errors.New("listing has no post")

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title               string `json:"title"`
	Selftext            string `json:"selftext"`
	URLOverriddenByDest string `json:"url_overridden_by_dest"`
	Preview             struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
	MediaMetadata map[string]redditMedia `json:"media_metadata"`
	GalleryData   struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`
}

type redditMedia struct {
	E string `json:"e"`
	S struct {
		U   string `json:"u"`
		GIF string `json:"gif"`
	} `json:"s"`
}

// RedditJSONURL rewrites a post URL to its .json listing with raw_json=1
func RedditJSONURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	q.Set("raw_json", "1")
	parsed.RawQuery = q.Encode()
	parsed.Fragment = ""
	return parsed.String(), nil
}

// NewRedditStrategy reads the post through Reddit's public JSON view
func NewRedditStrategy(fetcher *fetch.Fetcher, timeout time.Duration) Strategy {
	return Strategy{
		Name: "reddit-json",
		Attempt: func(ctx context.Context, rawURL string) (extract.Content, error) {
			jsonURL, err := RedditJSONURL(rawURL)
			if err != nil {
				return extract.Content{}, err
			}

			// Reddit answers non-browser clients with 429s
			var listings []redditListing
			opts := fetch.Options{Timeout: timeout, Browser: true}
			if err := fetcher.GetJSON(ctx, jsonURL, opts, &listings); err != nil {
				return extract.Content{}, err
			}
			if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
				return extract.Content{}, errNoPost
			}

			post := listings[0].Data.Children[0].Data
			return extract.Content{
				Text:   extract.CleanText(plainText(post.Title) + " " + plainText(post.Selftext)),
				Title:  post.Title,
				Images: post.images(),
			}, nil
		},
	}
}

func (p *redditPost) images() []string {
	var out []string
	if p.URLOverriddenByDest != "" && extract.IsImageLike(p.URLOverriddenByDest) {
		out = append(out, p.URLOverriddenByDest)
	}
	for _, img := range p.Preview.Images {
		if img.Source.URL != "" {
			out = append(out, img.Source.URL)
		}
	}
	for _, id := range p.galleryOrder() {
		m := p.MediaMetadata[id]
		if m.E != "Image" {
			continue
		}
		src := m.S.U
		if src == "" {
			src = m.S.GIF
		}
		if src != "" {
			out = append(out, src)
		}
	}

	for i, u := range out {
		out[i] = strings.ReplaceAll(u, "&amp;", "&")
	}
	return extract.Dedupe(out)
}

// galleryOrder lists media ids in gallery order, or sorted when there is no gallery
func (p *redditPost) galleryOrder() []string {
	if len(p.GalleryData.Items) > 0 {
		ids := make([]string, 0, len(p.GalleryData.Items))
		for _, item := range p.GalleryData.Items {
			if _, ok := p.MediaMetadata[item.MediaID]; ok {
				ids = append(ids, item.MediaID)
			}
		}
		return ids
	}
	ids := make([]string, 0, len(p.MediaMetadata))
	for id := range p.MediaMetadata {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
