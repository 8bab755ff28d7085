package util

import "strings"

// Platform identifies which extraction chain handles a URL
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformReddit    Platform = "reddit"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformGeneric   Platform = "generic"
)

var platformHosts = []struct {
	platform Platform
	hosts    []string
}{
	{PlatformTwitter, []string{"twitter.com"}},
	{PlatformReddit, []string{"reddit.com", "redd.it"}},
	{PlatformTikTok, []string{"tiktok.com"}},
	{PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{PlatformInstagram, []string{"instagram.com"}},
	{PlatformFacebook, []string{"facebook.com", "fb.com"}},
}

// DetectPlatform classifies a URL by host. It always returns a platform,
// PlatformGeneric when nothing matches.
func DetectPlatform(rawURL string) Platform {
	host := Host(rawURL)
	if host == "" {
		return PlatformGeneric
	}

	// x.com is too short for a substring match (box.com, fox.com)
	hostname := strings.Split(host, ":")[0]
	if hostname == "x.com" || strings.HasSuffix(hostname, ".x.com") {
		return PlatformTwitter
	}

	for _, entry := range platformHosts {
		for _, h := range entry.hosts {
			if strings.Contains(host, h) {
				return entry.platform
			}
		}
	}
	return PlatformGeneric
}
