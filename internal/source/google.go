package source

const googleBaseURL = "https://news.google.com/news/rss/headlines/section/topic/"

// NewGoogleNews builds the Google News provider. Google is an aggregator:
// each entry's description is a list of links to local publishers carrying
// the story, so its entries go through content extraction.
func NewGoogleNews() Source {
	const params = "?ned=zh-tw_tw&hl=zh-tw&gl=TW"

	categories := []string{
		"WORLD", "NATION", "BUSINESS", "TECHNOLOGY",
		"ENTERTAINMENT", "SPORTS", "SCIENCE", "HEALTH",
	}

	feeds := make(map[string]string, len(categories)+1)
	for _, c := range categories {
		feeds[c] = googleBaseURL + c + params
	}

	// The Taiwan section does not follow the regular URL scheme.
	categories = append(categories, "Taiwan")
	feeds["Taiwan"] = googleBaseURL + "NATION.zh-TW_tw/%E5%8F%B0%E7%81%A3?ned=tw&hl=zh-tw&gl=TW"

	return &staticSource{
		name:       "google",
		categories: categories,
		feeds:      feeds,
		aggregator: true,
	}
}
