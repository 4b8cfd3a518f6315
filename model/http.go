package model

type MatchRequestBody struct {
	Notes  []string `json:"notes"`
	Target string   `json:"target"`
}

type DetectRequestBody struct {
	Notes         []string `json:"notes"`
	MaxDifficulty int      `json:"maxDifficulty"`
}

type DetectResponse struct {
	Detection *Detection `json:"detection"`
}

type SimplifyRequestBody struct {
	Symbol        string `json:"symbol"`
	MaxDifficulty int    `json:"maxDifficulty"`
}

type ScaleResponse struct {
	Root  string   `json:"root"`
	Scale string   `json:"scale"`
	Notes []string `json:"notes"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
