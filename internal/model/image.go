package model

// Image is a photo attached to a pack. Data is base64 encoded.
type Image struct {
	ID     int64  `json:"id"`
	PackID string `json:"packId"`
	Data   string `json:"data"`
}

// ImageView is an image as embedded in a PackView.
type ImageView struct {
	ID   int64  `json:"id"`
	Data string `json:"data"`
}
