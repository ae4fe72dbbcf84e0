package domain

const (
	// DefaultPageSize is the page size applied when the caller omits a limit.
	DefaultPageSize = 10
	// MaxPageSize caps the caller-supplied limit.
	MaxPageSize = 50
)

// Candidate is one retrieved catalog record together with the relevance
// signals produced by whichever retrieval strategy found it. Signal fields
// are zero-valued when the strategy does not compute them; the scorer
// substitutes defaults.
type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"food_name"`
	Description string `json:"food_description"`
	ImageURL    string `json:"image_url,omitempty"`

	Rank            float64 `json:"-"`
	NameSimilarity  float64 `json:"-"`
	DescSimilarity  float64 `json:"-"`
	ExactNameMatch  bool    `json:"-"`
	PrefixNameMatch bool    `json:"-"`
	PrefixDescMatch bool    `json:"-"`

	// Edit distances are pointers: nil means the firing strategy did not
	// compute the signal, which is different from a distance of zero.
	NameEditDistance *int `json:"-"`
	DescEditDistance *int `json:"-"`

	CompositeScore float64 `json:"score"`
	NameHighlight  string  `json:"food_name_highlight"`
	DescHighlight  string  `json:"food_description_highlight"`
}

// DedupKey identifies a candidate for (name, description) deduplication.
func (c Candidate) DedupKey() string {
	return c.Name + "\x00" + c.Description
}

// ResultPage is the response envelope. It is the only entity that crosses
// the cache boundary and is serialized there as-is.
type ResultPage struct {
	Total           int         `json:"total"`
	Count           int         `json:"count"`
	Limit           int         `json:"limit"`
	Offset          int         `json:"offset"`
	Results         []Candidate `json:"results"`
	ServedFromCache bool        `json:"served_from_cache"`
}

// ClampPage normalizes caller-supplied pagination: limit into
// [1, max] with def applied when limit is zero or negative, offset to >= 0.
func ClampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
