package models

// PostPage is one fixed-size slice of a post listing plus pagination metadata.
type PostPage struct {
	Items       []*Post `json:"items"`
	Number      int     `json:"number"`
	NumPages    int     `json:"num_pages"`
	Total       int64   `json:"total"`
	HasNext     bool    `json:"has_next"`
	HasPrevious bool    `json:"has_previous"`
	NextPage    *int    `json:"next_page,omitempty"`
	PrevPage    *int    `json:"previous_page,omitempty"`
}
