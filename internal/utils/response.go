package utils

import (
	"encoding/json"
	"net/http"
)

const ProblemContentType = "application/problem+json"

// ProblemDetails is the RFC 7807 error body.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc7807#section-3.1",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc7807#section-3.4",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc7807#section-3.2",
}

func NewProblem(status int, title, detail string) ProblemDetails {
	t, ok := problemTypes[status]
	if !ok {
		t = "about:blank"
	}
	return ProblemDetails{Type: t, Title: title, Status: status, Detail: detail}
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string) error {
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(NewProblem(status, title, detail))
}
