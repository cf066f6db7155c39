package utils

import (
	"net/url"
	"strconv"
)

// QueryInt parses a non-negative integer query parameter, falling back to def.
func QueryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// QueryBool treats a missing or malformed flag as false.
func QueryBool(q url.Values, key string) bool {
	b, _ := strconv.ParseBool(q.Get(key))
	return b
}
