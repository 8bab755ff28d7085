package adapters

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/model"
)

// DefaultTwitterTitle is used when no strategy recovered the author
const DefaultTwitterTitle = "Twitter/X post"

var (
	statusIDPattern   = regexp.MustCompile(`/status/(\d+)`)
	trailingLinkRegex = regexp.MustCompile(`(?i)\s*(https?://t\.co/\w+|pic\.twitter\.com/\w+)\s*$`)

	errNoStatusID = errors.New("no status id in URL")
)

// tweetPayload covers both syndication shapes (tweet-result and widgets/tweet)
type tweetPayload struct {
	Text      string `json:"text"`
	FullText  string `json:"full_text"`
	NoteTweet struct {
		Text string `json:"text"`
	} `json:"note_tweet"`
	User struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	Core struct {
		UserResults struct {
			Result struct {
				Legacy struct {
					ScreenName string `json:"screen_name"`
				} `json:"legacy"`
			} `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	MediaDetails []tweetMedia `json:"mediaDetails"`
	Photos       []struct {
		URL string `json:"url"`
	} `json:"photos"`
	Video *struct {
		Poster string `json:"poster"`
	} `json:"video"`
	ExtendedEntities struct {
		Media []tweetMedia `json:"media"`
	} `json:"extended_entities"`
}

type tweetMedia struct {
	Type            string `json:"type"`
	MediaURLHTTPS   string `json:"media_url_https"`
	MediaURL        string `json:"media_url"`
	PreviewImageURL string `json:"preview_image_url"`
}

func (m tweetMedia) url() string {
	for _, u := range []string{m.MediaURLHTTPS, m.MediaURL, m.PreviewImageURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

func (p *tweetPayload) text() string {
	for _, t := range []string{p.Text, p.FullText, p.NoteTweet.Text} {
		if t != "" {
			return t
		}
	}
	return ""
}

func (p *tweetPayload) screenName() string {
	if p.User.ScreenName != "" {
		return p.User.ScreenName
	}
	return p.Core.UserResults.Result.Legacy.ScreenName
}

// images follows the preference order: media details, then photos, then
// the video poster, then legacy extended entities
func (p *tweetPayload) images() []string {
	var out []string
	for _, m := range p.MediaDetails {
		switch strings.ToLower(m.Type) {
		case "photo", "image", "video", "animated_gif":
			if u := m.url(); u != "" {
				out = append(out, u)
			}
		}
	}
	if len(out) == 0 {
		for _, photo := range p.Photos {
			if photo.URL != "" {
				out = append(out, photo.URL)
			}
		}
	}
	if len(out) == 0 && p.Video != nil && p.Video.Poster != "" {
		out = append(out, p.Video.Poster)
	}
	if len(out) == 0 {
		for _, m := range p.ExtendedEntities.Media {
			if u := m.url(); u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}

func (p *tweetPayload) content() extract.Content {
	return tweetContent(p.text(), p.screenName(), p.images())
}

func tweetContent(text, screenName string, images []string) extract.Content {
	c := extract.Content{Text: SanitizeTweetText(text)}
	if screenName != "" {
		c.Title = "Post by @" + screenName
	}
	for _, img := range images {
		c.Images = append(c.Images, extract.UpgradeTwitterMedia(img))
	}
	c.Images = extract.Dedupe(c.Images)
	return c
}

// SanitizeTweetText strips markup, the oEmbed " — author (date)" suffix and
// trailing t.co / pic.twitter.com links
func SanitizeTweetText(text string) string {
	text = plainText(text)
	if before, _, found := strings.Cut(text, " — "); found {
		text = strings.TrimSpace(before)
	}
	for {
		stripped := trailingLinkRegex.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	return extract.CleanText(text)
}

// StatusID returns the numeric post id from a status URL
func StatusID(rawURL string) (string, bool) {
	m := statusIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NewTwitterChain builds syndication, widgets, oEmbed and proxy strategies.
// The chain keeps going until media is found since text alone is common.
func NewTwitterChain(fetcher *fetch.Fetcher, endpoints model.EndpointsConfig, timeout time.Duration) *Chain {
	t := &twitter{fetcher: fetcher, endpoints: endpoints, timeout: timeout}
	return &Chain{
		Strategies: []Strategy{
			{Name: "twitter-syndication", Attempt: t.syndication},
			{Name: "twitter-widgets", Attempt: t.widgets},
			{Name: "twitter-oembed", Attempt: t.oembed},
			{Name: "twitter-proxy", Attempt: t.proxy},
		},
		Done:         HasImages,
		DefaultTitle: DefaultTwitterTitle,
	}
}

type twitter struct {
	fetcher   *fetch.Fetcher
	endpoints model.EndpointsConfig
	timeout   time.Duration
}

func (t *twitter) syndicationGet(ctx context.Context, path, rawURL string) (extract.Content, error) {
	if t.endpoints.TwitterSyndication == "" {
		return extract.Content{}, errEmptyEndpoint
	}
	id, ok := StatusID(rawURL)
	if !ok {
		return extract.Content{}, errNoStatusID
	}

	q := url.Values{"id": {id}, "lang": {"en"}}
	endpoint := strings.TrimRight(t.endpoints.TwitterSyndication, "/") + path + "?" + q.Encode()

	var payload tweetPayload
	if err := t.fetcher.GetJSON(ctx, endpoint, fetch.Options{Timeout: t.timeout}, &payload); err != nil {
		return extract.Content{}, err
	}
	return payload.content(), nil
}

func (t *twitter) syndication(ctx context.Context, rawURL string) (extract.Content, error) {
	return t.syndicationGet(ctx, "/tweet-result", rawURL)
}

func (t *twitter) widgets(ctx context.Context, rawURL string) (extract.Content, error) {
	return t.syndicationGet(ctx, "/widgets/tweet", rawURL)
}

type oembedPayload struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	HTML         string `json:"html"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (t *twitter) oembed(ctx context.Context, rawURL string) (extract.Content, error) {
	if t.endpoints.TwitterOEmbed == "" {
		return extract.Content{}, errEmptyEndpoint
	}
	q := url.Values{"url": {rawURL}, "omit_script": {"1"}}

	var payload oembedPayload
	if err := t.fetcher.GetJSON(ctx, t.endpoints.TwitterOEmbed+"?"+q.Encode(), fetch.Options{Timeout: t.timeout}, &payload); err != nil {
		return extract.Content{}, err
	}

	text := payload.Title
	var images []string
	if payload.HTML != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload.HTML))
		if err != nil {
			return extract.Content{}, err
		}
		if p := strings.TrimSpace(doc.Find("blockquote p").Text()); p != "" {
			text = p
		} else {
			text = doc.Text()
		}
		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				images = append(images, src)
			}
		})
	}

	c := tweetContent(text, "", images)
	c.Title = payload.AuthorName
	return c, nil
}

type fxPayload struct {
	Tweet struct {
		Text    string `json:"text"`
		RawText struct {
			Text string `json:"text"`
		} `json:"raw_text"`
		Author struct {
			ScreenName string `json:"screen_name"`
		} `json:"author"`
		Media struct {
			Photos []struct {
				URL string `json:"url"`
			} `json:"photos"`
			All []struct {
				Type string `json:"type"`
				URL  string `json:"url"`
			} `json:"all"`
		} `json:"media"`
	} `json:"tweet"`
}

func (t *twitter) proxy(ctx context.Context, rawURL string) (extract.Content, error) {
	if t.endpoints.TwitterProxy == "" {
		return extract.Content{}, errEmptyEndpoint
	}
	id, ok := StatusID(rawURL)
	if !ok {
		return extract.Content{}, errNoStatusID
	}

	var payload fxPayload
	endpoint := strings.TrimRight(t.endpoints.TwitterProxy, "/") + "/i/status/" + id
	if err := t.fetcher.GetJSON(ctx, endpoint, fetch.Options{Timeout: t.timeout}, &payload); err != nil {
		return extract.Content{}, err
	}

	tw := payload.Tweet
	text := tw.Text
	if text == "" {
		text = tw.RawText.Text
	}
	var images []string
	for _, p := range tw.Media.Photos {
		if p.URL != "" {
			images = append(images, p.URL)
		}
	}
	for _, m := range tw.Media.All {
		if m.Type == "photo" && m.URL != "" {
			images = append(images, m.URL)
		}
	}
	return tweetContent(text, tw.Author.ScreenName, images), nil
}
