package soundcloud

// trackResult is a single track from the SoundCloud /tracks search endpoint.
type trackResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	DurationMS   int64  `json:"duration"`
	PermalinkURL string `json:"permalink_url"`
	ArtworkURL   string `json:"artwork_url"`
	User         user   `json:"user"`
}

type user struct {
	Username string `json:"username"`
}
