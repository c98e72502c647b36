package model

type Toast struct {
	Style   string `json:"style"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
