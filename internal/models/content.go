package models

import "time"

// Article is a rendered markdown article.
type Article struct {
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Content  string    `json:"content"` // HTML rendered from markdown
	Date     time.Time `json:"date"`
	Category *string   `json:"category"`
	Tags     []string  `json:"tags"`
	Summary  *string   `json:"summary"`
}

// Project is a rendered markdown project page.
type Project struct {
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Content      string    `json:"content"`
	Date         time.Time `json:"date"`
	Status       *string   `json:"status"`
	Technologies []string  `json:"technologies"`
	Summary      *string   `json:"summary"`
	URL          *string   `json:"url"`
}
