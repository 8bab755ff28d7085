package pipeline

import (
	"time"

	"github.com/ppiankov/verdict/internal/model"
)

// ImageClaimPrefix marks image claims in URL responses
const ImageClaimPrefix = "[Image] "

const maxDebugImages = 10

// Assembly is everything a response is built from
type Assembly struct {
	RequestID     string
	Timestamp     time.Time
	OriginalText  *string
	OriginalImage string
	SourceURL     string
	Extraction    *model.ExtractionResult // URL checks only
	TextResults   []model.ClaimResult
	ImageResults  []model.ClaimResult
}

// Assemble builds the response: text results first, then image results
func Assemble(a Assembly) *model.FactCheckResponse {
	results := make([]model.ClaimResult, 0, len(a.TextResults)+len(a.ImageResults))
	results = append(results, a.TextResults...)
	for _, r := range a.ImageResults {
		if a.Extraction != nil {
			r.Claim = ImageClaimPrefix + r.Claim
		}
		results = append(results, r)
	}

	resp := &model.FactCheckResponse{
		RequestID:        a.RequestID,
		OriginalText:     a.OriginalText,
		OriginalImage:    a.OriginalImage,
		ClaimsFound:      len(results),
		FactCheckResults: results,
		Timestamp:        float64(a.Timestamp.UnixNano()) / float64(time.Second),
		SourceURL:        a.SourceURL,
	}

	if ex := a.Extraction; ex != nil {
		detected := len(ex.ImageURLs)
		info := ex.ImageDetectionInfo
		resp.SourceTitle = ex.Title
		resp.ImagesDetected = &detected
		resp.ImageDetectionInfo = &info
		resp.DebugImageURLs = firstN(ex.ImageURLs, maxDebugImages)
		if info.ImageDetected && detected == 0 {
			resp.ImageDetectionMessage = info.Message
		}
		if detected > 0 {
			resp.SelectedImageURL = ex.ImageURLs[0]
		}
	}
	return resp
}
