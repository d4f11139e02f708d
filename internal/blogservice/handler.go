package blogservice

import (
	"context"
	"database/sql"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
)

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{m: newBlogModel(db)}
}

type CreateBlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
	// Tags is a comma-delimited string, e.g. "go, databases".
	Tags  string `json:"tags"`
	State State  `json:"state"`
}

// CreateBlog creates a new blog owned by authorID. The state defaults to
// draft and the reading time is derived from the body.
func (s *BlogService) CreateBlog(ctx context.Context, authorID int, req *CreateBlogRequest) (*Blog, error) {
	state := req.State
	if state == "" {
		state = StateDraft
	}

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateBody(v, req.Body)
	validateState(v, state)
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        parseTags(req.Tags),
		State:       state,
		ReadingTime: estimateReadingTime(req.Body),
		AuthorID:    authorID,
	}

	if err := s.m.insert(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlogByID returns a blog with its author resolved, bumping the read count
// by exactly one. This is the only read operation with a side effect.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	common.BlogReadsTotal.Inc()

	return blog, nil
}

// GetBlogsByAuthor returns the author's own blogs, both drafts and published,
// optionally narrowed to one state.
func (s *BlogService) GetBlogsByAuthor(ctx context.Context, authorID int, f Filter) ([]Blog, error) {
	v := common.NewValidator()
	validateInt(v, authorID, "author_id")
	if f.State != "" {
		validateState(v, f.State)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	f.normalize()

	return s.m.getByAuthor(ctx, authorID, f.State, f.Limit, f.offset())
}

// orderColumns whitelists the columns a caller may sort the public listing
// by. The model interpolates the column name, so nothing outside this map is
// allowed through.
var orderColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"read_count": "read_count",
}

// GetPublishedBlogs returns published blogs only, newest first by default,
// optionally filtered by a case-insensitive search over title, description
// and tags.
func (s *BlogService) GetPublishedBlogs(ctx context.Context, f Filter) ([]Blog, error) {
	f.normalize()

	v := common.NewValidator()
	orderBy, ok := orderColumns[f.OrderBy]
	v.Check(ok, "order_by", "must be one of created_at, title, read_count")
	v.Check(common.PermittedValue(f.Order, "asc", "desc"), "order", "must be either asc or desc")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getPublished(ctx, f.Search, orderBy, f.Order, f.Limit, f.offset())
}

type UpdateBlogRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
	Tags        *string `json:"tags"`
}

// UpdateBlog applies a partial update to a blog owned by authorID. Absent
// fields are left untouched; a new body re-derives the reading time.
func (s *BlogService) UpdateBlog(ctx context.Context, authorID, id int, req *UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, authorID, "author_id")
	if req.Title != nil {
		validateTitle(v, *req.Title)
	}
	if req.Body != nil {
		validateBody(v, *req.Body)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	patch := &blogPatch{
		title:       req.Title,
		description: req.Description,
		body:        req.Body,
	}

	if req.Tags != nil {
		tags := parseTags(*req.Tags)
		patch.tags = &tags
	}

	if req.Body != nil {
		readingTime := estimateReadingTime(*req.Body)
		patch.readingTime = &readingTime
	}

	return s.m.update(ctx, id, authorID, patch)
}

// SetBlogState transitions a blog between draft and published. Both
// directions are permitted and re-applying the current state is idempotent.
func (s *BlogService) SetBlogState(ctx context.Context, authorID, id int, state State) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, authorID, "author_id")
	validateState(v, state)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.setState(ctx, id, authorID, state)
}

// DeleteBlog permanently removes a blog owned by authorID.
func (s *BlogService) DeleteBlog(ctx context.Context, authorID, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.delete(ctx, id, authorID)
}
