package models

import "time"

// Paper is a single arXiv paper record. Everything except Updated and
// IsNew is frozen on first fetch: Updated may be refreshed from a later
// response for the same id, and IsNew is derived against the seen set
// whenever papers are read, never persisted as authoritative state.
type Paper struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Authors    []string  `json:"authors"`
	Categories []string  `json:"categories"`
	Published  time.Time `json:"published"`
	Updated    time.Time `json:"updated"`
	ArxivURL   string    `json:"arxiv_url"`
	PdfURL     string    `json:"pdf_url"`
	FetchedAt  time.Time `json:"fetched_at"`
	IsNew      bool      `json:"is_new"`
}
