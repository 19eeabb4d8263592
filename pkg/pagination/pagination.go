package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gurbanow/rideline/pkg/common"
)

const (
	// DefaultLimit is the default number of items per page
	DefaultLimit = 10
	// MaxLimit is the maximum number of items per page
	MaxLimit = 100
)

// Params represents page-based pagination parameters
type Params struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParseParams extracts and sanitizes page/limit query parameters.
func ParseParams(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// BuildMeta creates pagination metadata for responses
func BuildMeta(params Params, total int64) *common.Meta {
	meta := &common.Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	}
	if params.Limit > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}
	return meta
}
