package model

import "time"

type BlogPost struct {
	ID          string            `json:"id,omitempty"`
	Title       string            `json:"title" validate:"required"`
	Slug        string            `json:"slug,omitempty"`
	Excerpt     string            `json:"excerpt,omitempty"`
	Content     string            `json:"content" validate:"required"`
	Author      string            `json:"author,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CoverImage  string            `json:"coverImage,omitempty" validate:"omitempty,url"`
	Status      PublicationStatus `json:"status,omitempty"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt,omitzero"`
	UpdatedAt   time.Time         `json:"updatedAt,omitzero"`
}

func (b BlogPost) EntityID() string { return b.ID }

func (b BlogPost) Timestamps() (time.Time, time.Time) { return b.CreatedAt, b.UpdatedAt }
