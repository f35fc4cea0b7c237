package filters

import (
	"net/url"

	"github.com/gorilla/schema"
)

const (
	AscSort  = "asc"
	DescSort = "desc"
)

var encoder = schema.NewEncoder()

// MovieFilters mirrors the query parameters of GET /movies/.
type MovieFilters struct {
	Year      int     `schema:"year,omitempty"`
	Director  string  `schema:"director,omitempty"`
	Actor     string  `schema:"actor,omitempty"`
	Genre     string  `schema:"genre,omitempty"`
	MinRating float64 `schema:"min_rating,omitempty"`
	Search    string  `schema:"search,omitempty"`
	SortBy    string  `schema:"sort_by,omitempty"`
	SortOrder string  `schema:"sort_order,omitempty"`
	Limit     int     `schema:"limit,omitempty"`
	Offset    int     `schema:"offset,omitempty"`
}

// TopRated is the default listing shown absent any search or filter:
// sorted by IMDb rating descending, one page at a time.
func TopRated(page, pageSize int) MovieFilters {
	if page < 1 {
		page = 1
	}
	return MovieFilters{
		SortBy:    "imdb_rating",
		SortOrder: DescSort,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}
}

func (f MovieFilters) Values() (url.Values, error) {
	v := url.Values{}
	if err := encoder.Encode(&f, v); err != nil {
		return nil, err
	}
	return v, nil
}
