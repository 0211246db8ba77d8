package utils

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/ahmaruff/todos-api/internal/constants"
	"github.com/gin-gonic/gin"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	CurrentPage     int     `json:"current_page"`
	TotalPage       int     `json:"total_page"`
	PerPage         int     `json:"per_page"`
	LastPage        int     `json:"last_page"`
	PreviousPageURL *string `json:"previous_page_url"`
	NextPageURL     *string `json:"next_page_url"`
	Total           int64   `json:"total"`
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))
	limit, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, limit)
}

// NewPaginationParams clamps page and limit into their allowed ranges.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// BuildPagination derives page metadata and the previous/next links.
// Links reuse the non-empty values of query with page replaced.
func BuildPagination(baseURL string, query url.Values, params PaginationParams, total int64) PaginationResponse {
	lastPage := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		lastPage++
	}
	if lastPage < 1 {
		lastPage = 1
	}

	resp := PaginationResponse{
		CurrentPage: params.Page,
		TotalPage:   lastPage,
		PerPage:     params.Limit,
		LastPage:    lastPage,
		Total:       total,
	}

	if params.Page > 1 {
		link := pageURL(baseURL, query, params.Page-1)
		resp.PreviousPageURL = &link
	}
	if params.Page < lastPage {
		link := pageURL(baseURL, query, params.Page+1)
		resp.NextPageURL = &link
	}

	return resp
}

func pageURL(baseURL string, query url.Values, page int) string {
	values := url.Values{}
	for key, vals := range query {
		for _, v := range vals {
			if v != "" {
				values.Add(key, v)
			}
		}
	}
	values.Set("page", strconv.Itoa(page))

	return baseURL + "?" + values.Encode()
}

// RequestBaseURL returns scheme, host and path of r without the query string.
func RequestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + r.URL.Path
}
