package model

// Item is one individually identified unit belonging to exactly one pack.
type Item struct {
	ID     string `json:"id"`
	PackID string `json:"packId"`
}
