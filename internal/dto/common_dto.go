package dto

// UploadResponse describes a stored file.
type UploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ResetResponse summarises a local store reset.
type ResetResponse struct {
	Cleared int `json:"cleared"`
}
