package model

// ExtractionResult is the normalized content recovered from a URL
type ExtractionResult struct {
	Text               string             `json:"text"`       // Whitespace-collapsed, truncated with "…"
	Title              string             `json:"title"`      // Best available title
	ImageURLs          []string           `json:"image_urls"` // Deduplicated, image-like, capped
	ImageDetectionInfo ImageDetectionInfo `json:"image_detection_info"`
}

// ImageDetectionInfo reports whether a page appears to carry images and
// whether any of them could actually be recovered
type ImageDetectionInfo struct {
	HasImages     bool   `json:"has_images"`     // At least one image URL survived filtering
	ImageDetected bool   `json:"image_detected"` // Images recovered or hinted at by URL/text patterns
	Message       string `json:"message"`        // Set only when detected but none recovered
}

// ImageRef points at an image to analyze. DataURL wins over URL when both are set.
type ImageRef struct {
	URL     string `json:"image_url,omitempty"`
	DataURL string `json:"image_data_url,omitempty"`
}

// Empty reports whether the reference carries no image at all
func (r ImageRef) Empty() bool {
	return r.URL == "" && r.DataURL == ""
}

// Location returns what the model should be shown for this image
func (r ImageRef) Location() string {
	if r.DataURL != "" {
		return r.DataURL
	}
	return r.URL
}
