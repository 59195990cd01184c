package pet

// Image is one element of the search response of thecatapi.com and
// thedogapi.com. Only URL is used.
type Image struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
