package source

const (
	yahooBaseURL      = "https://tw.news.yahoo.com/rss/"
	yahooStockBaseURL = "https://tw.stock.yahoo.com/rss/url/d/e/"
)

// NewYahooNews builds the Yahoo News provider. Yahoo feeds carry full article
// text in the description, so no extraction is needed.
func NewYahooNews() Source {
	categories := []string{"politics", "tech", "health", "intl"}

	feeds := make(map[string]string, len(categories))
	for _, c := range categories {
		feeds[c] = yahooBaseURL + c
	}

	// Stock feeds live on a different host with irregular names.
	stock := map[string]string{
		"N3":  yahooStockBaseURL + "N3.html",
		"N4":  yahooStockBaseURL + "N4.html",
		"N7":  yahooStockBaseURL + "N7.html",
		"N11": yahooStockBaseURL + "N1.html",
		"R2":  yahooStockBaseURL + "R2.html",
		"R3":  yahooStockBaseURL + "R3.html",
		"R4":  yahooStockBaseURL + "R4.html",
		"R6":  yahooStockBaseURL + "R6.html",
	}
	for _, c := range []string{"N3", "N4", "N7", "N11", "R2", "R3", "R4", "R6"} {
		categories = append(categories, c)
		feeds[c] = stock[c]
	}

	return &staticSource{
		name:       "yahoo",
		categories: categories,
		feeds:      feeds,
		aggregator: false,
	}
}
