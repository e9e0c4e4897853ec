// internal/workers/extraction/asset-sheet/models.go
package assetsheet

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	AssetsLiabilities *models.AssetsLiabilities `json:"assetsLiabilities,omitempty"`
	Metadata          models.ExtractionMetadata `json:"metadata"`
}
