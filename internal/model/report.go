package model

// FactCheckResponse is the reply for one fact-check request.
// Built once by the pipeline and never mutated afterwards.
type FactCheckResponse struct {
	RequestID        string        `json:"request_id"`
	OriginalText     *string       `json:"original_text,omitempty"`  // Text and URL checks
	OriginalImage    string        `json:"original_image,omitempty"` // "data_url" or the image URL
	ClaimsFound      int           `json:"claims_found"`
	FactCheckResults []ClaimResult `json:"fact_check_results"`
	Timestamp        float64       `json:"timestamp"` // Unix seconds

	// Extraction metadata, URL checks only
	SourceURL             string              `json:"source_url,omitempty"`
	SourceTitle           string              `json:"source_title,omitempty"`
	ImagesDetected        *int                `json:"images_detected,omitempty"`
	ImageDetectionInfo    *ImageDetectionInfo `json:"image_detection_info,omitempty"`
	ImageDetectionMessage string              `json:"image_detection_message,omitempty"`
	SelectedImageURL      string              `json:"selected_image_url,omitempty"`
	DebugImageURLs        []string            `json:"debug_image_urls,omitempty"`
}

// HealthStatus is served by the health endpoint
type HealthStatus struct {
	Status           string  `json:"status"`
	APIKeyConfigured bool    `json:"api_key_configured"`
	Timestamp        float64 `json:"timestamp"`
}
