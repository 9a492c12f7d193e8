package dto

// ImageFormatResponse is the answer of the image format helper.
type ImageFormatResponse struct {
	Kind string `json:"kind"`
	Src  string `json:"src"`
}

// ImageRequest carries an image string, optionally aimed at a bucket.
type ImageRequest struct {
	Bucket string `json:"bucket"`
	Image  string `json:"image"`
}

// ImageUploadResponse tells where an uploaded image ended up.
type ImageUploadResponse struct {
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
	Src  string `json:"src"`
}
