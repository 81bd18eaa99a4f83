package ginserver

import (
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"
)

// splitCSV turns "a, b,,c" into [a b c]; blank input yields nil.
func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// queryNumber reads a non-negative integer query parameter. Missing, malformed and
// negative values all fall back; the buses validate upper bounds.
func queryNumber[T int | int64](c *gin.Context, name string, fallback T) T {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return T(v)
}

// page reads limit/offset; limit=0 means the default page size.
func page(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit = queryNumber(c, "limit", defaultLimit)
	if limit == 0 {
		limit = defaultLimit
	}
	return limit, queryNumber(c, "offset", 0)
}
