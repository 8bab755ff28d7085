package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/verdict/internal/model"
)

// ImagePredicate decides whether a candidate URL points at an image.
// It is a heuristic; false positives and negatives are expected.
type ImagePredicate func(rawURL string) bool

// ImageDetectedMessage is shown when a post looks like it has images but none could be recovered
const ImageDetectedMessage = "Images detected in this post, but they cannot be accessed directly from the URL. " +
	"Please provide a screenshot of the image for visual fact-checking."

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)$`)

var imageHosts = []string{
	"pbs.twimg.com",
	"i.redd.it",
	"preview.redd.it",
	"external-preview.redd.it",
	"i.imgur.com",
	"imgur.com",
	"cdninstagram.com",
	"fbcdn.net",
	"media.tumblr.com",
	"media.discordapp.net",
}

var mediaFormatPattern = regexp.MustCompile(`(?i)(^|&)format=(jpg|jpeg|png|webp|gif)(&|$)`)

// IsImageFile reports whether rawURL itself is an image: an image file
// extension or a known image CDN host. URLs passing it are not fetched as pages.
func IsImageFile(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return false
	}
	return isImageFile(parsed)
}

func isImageFile(parsed *url.URL) bool {
	if imageExtPattern.MatchString(parsed.Path) {
		return true
	}
	host := strings.ToLower(parsed.Host)
	for _, h := range imageHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// IsImageLike is the default ImagePredicate for image candidates: IsImageFile,
// or a media path/format query as a weaker signal.
func IsImageLike(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return false
	}
	if isImageFile(parsed) {
		return true
	}
	return strings.Contains(parsed.Path, "/media/") || mediaFormatPattern.MatchString(parsed.RawQuery)
}

// Dedupe drops empty strings and exact duplicates, keeping first-seen order
func Dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// FilterImages keeps candidates accepted by pred, deduplicated and capped at max (max <= 0 means no cap)
func FilterImages(candidates []string, pred ImagePredicate, max int) []string {
	if pred == nil {
		pred = IsImageLike
	}
	out := make([]string, 0, len(candidates))
	for _, c := range Dedupe(candidates) {
		if pred(c) {
			out = append(out, c)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

var imageHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pic\.twitter\.com`),
	regexp.MustCompile(`(?i)pbs\.twimg\.com`),
	regexp.MustCompile(`(?i)i\.redd\.it`),
	regexp.MustCompile(`(?i)preview\.redd\.it`),
	regexp.MustCompile(`(?i)imgur\.com`),
	regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)`),
	regexp.MustCompile(`(?i)redditmedia\.com`),
	regexp.MustCompile(`(?i)redditstatic\.com`),
	regexp.MustCompile(`(?i)external-preview\.redd\.it`),
	regexp.MustCompile(`(?i)images\.redd\.it`),
	regexp.MustCompile(`(?i)media\.redd\.it`),
}

func hasImageHint(s string) bool {
	for _, p := range imageHintPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// DetectImages builds ImageDetectionInfo for a finished extraction
func DetectImages(rawURL, text string, images []string) model.ImageDetectionInfo {
	hasImages := len(images) > 0
	detected := hasImages || hasImageHint(rawURL) || hasImageHint(text)

	info := model.ImageDetectionInfo{
		HasImages:     hasImages,
		ImageDetected: detected,
	}
	if detected && !hasImages {
		info.Message = ImageDetectedMessage
	}
	return info
}
