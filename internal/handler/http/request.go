package http

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt returns 0 for a missing parameter.
func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func queryString(r *http.Request, key string) *string {
	if s := r.URL.Query().Get(key); s != "" {
		return &s
	}
	return nil
}
