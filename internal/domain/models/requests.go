package models

// Requests for scan HTTP endpoints. Defined in domain for consistency and reuse.

type ScanRequest struct {
	AnalyzeTop *int     `json:"analyze_top" default:"5" validate:"gte=0,lte=20"`
	Sources    []string `json:"sources" validate:"omitempty,dive,oneof=reddit stocktwits 4chan bitcointalk"`
	Async      bool     `json:"async"`
}

type ClustersRequest struct {
	Limit        int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
	MinPlatforms int `query:"min_platforms" json:"min_platforms" default:"1" validate:"gte=1,lte=10"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

// ScanJobPayload is the queued form of an async scan request.
type ScanJobPayload struct {
	ScanID     string   `json:"scan_id"`
	AnalyzeTop int      `json:"analyze_top"`
	Sources    []string `json:"sources"`
}
