package blogservice

import (
	"database/sql"
	"time"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/userservice"
)

// State is the publication state of a blog. Drafts are visible only to their
// author; published blogs show up on the public listing.
type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

type Blog struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	// Body is stored in Markdown format.
	Body        string    `json:"body"`
	Tags        []string  `json:"tags"`
	State       State     `json:"state"`
	ReadingTime string    `json:"reading_time"`
	ReadCount   int       `json:"read_count"`
	AuthorID    int       `json:"author_id"`
	Author      *userservice.User `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"-"`
}

type BlogService struct {
	m *BlogModel
}

type BlogModel struct {
	db *sql.DB
}

// Filter carries the pagination, search and ordering parameters of the list
// operations. Zero values fall back to the defaults in normalize.
type Filter struct {
	Page    int
	Limit   int
	State   State
	Search  string
	OrderBy string
	Order   string
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = 20
	}

	if f.OrderBy == "" {
		f.OrderBy = "created_at"
	}

	if f.Order == "" {
		f.Order = "desc"
	}
}

func (f *Filter) offset() int {
	return (f.Page - 1) * f.Limit
}
