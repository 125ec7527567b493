// Package dto holds request bodies for the v1 API.
package dto

// ReflectionRequest is the body of POST /api/v1/reflections.
type ReflectionRequest struct {
	Author   string `json:"author"`
	Surah    int    `json:"surah"`
	FromAyah int    `json:"from_ayah"`
	ToAyah   int    `json:"to_ayah"`
	Language string `json:"language"`
}

// TranslationRequest is the body of POST /api/v1/translations.
type TranslationRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status string `json:"status"`
}
