package blogservice

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
)

// setupTestUser inserts a user directly so blog tests do not depend on the
// user service.
func setupTestUser(db *sql.DB, email string) (int, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err := db.QueryRow(query, "Test", "User", email, []byte("not-a-real-hash")).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, func() error, int) {
	db := common.TestDB("file://../../migrations", t)

	userID, err := setupTestUser(db, "author@example.com")
	if err != nil {
		t.Fatalf("could not create test user: %v", err)
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM blogs")
		return err
	}

	return NewBlogService(db), db, cleanup, userID
}

func createTestBlog(s *BlogService, authorID int, state State) (*Blog, error) {
	return s.CreateBlog(context.Background(), authorID, &CreateBlogRequest{
		Title: "Test Blog",
		Body:  "This is a test blog.",
		Tags:  "test, go",
		State: state,
	})
}

func TestCreateBlog(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)

	testCases := []struct {
		name        string
		authorID    int
		req         *CreateBlogRequest
		expectedErr error
		check       func(t *testing.T, blog *Blog)
	}{
		{
			name:     "valid blog defaults to draft",
			authorID: userID,
			req: &CreateBlogRequest{
				Title: "Test Blog",
				Body:  strings.Repeat("word ", 250),
				Tags:  " go , databases ",
			},
			check: func(t *testing.T, blog *Blog) {
				assert.Equal(t, StateDraft, blog.State)
				assert.Equal(t, "2 min read", blog.ReadingTime)
				assert.Equal(t, []string{"go", "databases"}, blog.Tags)
				assert.Equal(t, 0, blog.ReadCount)
				assert.Equal(t, userID, blog.AuthorID)
			},
		},
		{
			name:     "explicit published state",
			authorID: userID,
			req: &CreateBlogRequest{
				Title: "Test Blog",
				Body:  "short body",
				State: StatePublished,
			},
			check: func(t *testing.T, blog *Blog) {
				assert.Equal(t, StatePublished, blog.State)
				assert.Equal(t, "1 min read", blog.ReadingTime)
			},
		},
		{
			name:     "empty title",
			authorID: userID,
			req: &CreateBlogRequest{
				Body: "This is a test blog.",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name:     "empty body",
			authorID: userID,
			req: &CreateBlogRequest{
				Title:       "Test Blog",
				Description: "has everything except a body",
				Tags:        "test",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"body": "must be provided"}},
		},
		{
			name:     "invalid state",
			authorID: userID,
			req: &CreateBlogRequest{
				Title: "Test Blog",
				Body:  "This is a test blog.",
				State: "archived",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"state": "must be either draft or published"}},
		},
		{
			name:     "unknown author",
			authorID: 999,
			req: &CreateBlogRequest{
				Title: "Test Blog",
				Body:  "This is a test blog.",
			},
			expectedErr: ErrAuthorForeignKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			blog, err := s.CreateBlog(ctx, tc.authorID, tc.req)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.NotZero(t, blog.ID)
				tc.check(t, blog)

				var count int
				err := db.QueryRow("SELECT COUNT(*) FROM blogs").Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 1, count)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestGetBlogByIDIncrementsReadCount(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	created, err := createTestBlog(s, userID, StateDraft)
	assert.NoError(t, err)

	ctx := context.Background()

	// three fetches bump the count by exactly three, author views included
	for i := 1; i <= 3; i++ {
		blog, err := s.GetBlogByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, i, blog.ReadCount)
		assert.NotNil(t, blog.Author)
		assert.Equal(t, userID, blog.Author.ID)
	}

	var count int
	err = db.QueryRow("SELECT read_count FROM blogs WHERE id = $1", created.ID).Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetBlogByIDNotFound(t *testing.T) {
	s, _, cleanup, _ := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	_, err := s.GetBlogByID(ctx, 999)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// malformed identifiers read as not found, not as validation failures
	_, err = s.GetBlogByID(ctx, -1)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetBlogsByAuthor(t *testing.T) {
	s, _, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := createTestBlog(s, userID, StateDraft)
		assert.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := createTestBlog(s, userID, StatePublished)
		assert.NoError(t, err)
	}

	// drafts and published both come back for the owner
	blogs, err := s.GetBlogsByAuthor(ctx, userID, Filter{})
	assert.NoError(t, err)
	assert.Len(t, blogs, 5)

	blogs, err = s.GetBlogsByAuthor(ctx, userID, Filter{State: StateDraft})
	assert.NoError(t, err)
	assert.Len(t, blogs, 3)

	blogs, err = s.GetBlogsByAuthor(ctx, userID, Filter{Page: 2, Limit: 3})
	assert.NoError(t, err)
	assert.Len(t, blogs, 2)

	_, err = s.GetBlogsByAuthor(ctx, userID, Filter{State: "archived"})
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"state": "must be either draft or published"}}, err)
}

func TestGetPublishedBlogs(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx := context.Background()

	_, err := s.CreateBlog(ctx, userID, &CreateBlogRequest{
		Title: "Published about Go",
		Body:  "published body",
		Tags:  "test, go",
		State: StatePublished,
	})
	assert.NoError(t, err)

	_, err = s.CreateBlog(ctx, userID, &CreateBlogRequest{
		Title: "Draft about Go",
		Body:  "draft body",
		Tags:  "test",
		State: StateDraft,
	})
	assert.NoError(t, err)

	_, err = s.CreateBlog(ctx, userID, &CreateBlogRequest{
		Title:       "Something else entirely",
		Description: "nothing to do with the search term",
		Body:        "published body",
		State:       StatePublished,
	})
	assert.NoError(t, err)

	// no filter: both published blogs, never the draft
	blogs, err := s.GetPublishedBlogs(ctx, Filter{})
	assert.NoError(t, err)
	assert.Len(t, blogs, 2)
	for _, blog := range blogs {
		assert.Equal(t, StatePublished, blog.State)
		assert.NotNil(t, blog.Author)
	}

	// tag search matches the published blog tagged "test" but not the draft
	blogs, err = s.GetPublishedBlogs(ctx, Filter{Search: "test"})
	assert.NoError(t, err)
	assert.Len(t, blogs, 1)
	assert.Equal(t, "Published about Go", blogs[0].Title)

	// search is case-insensitive and matches titles too
	blogs, err = s.GetPublishedBlogs(ctx, Filter{Search: "SOMETHING"})
	assert.NoError(t, err)
	assert.Len(t, blogs, 1)

	// ascending title order
	blogs, err = s.GetPublishedBlogs(ctx, Filter{OrderBy: "title", Order: "asc"})
	assert.NoError(t, err)
	assert.Len(t, blogs, 2)
	assert.Equal(t, "Published about Go", blogs[0].Title)

	_, err = s.GetPublishedBlogs(ctx, Filter{OrderBy: "password"})
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"order_by": "must be one of created_at, title, read_count"}}, err)

	// searching never bumps read counts
	var total int
	err = db.QueryRow("SELECT COALESCE(SUM(read_count), 0) FROM blogs").Scan(&total)
	assert.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestUpdateBlog(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)

	otherID, err := setupTestUser(db, "other@example.com")
	assert.NoError(t, err)

	strptr := func(v string) *string { return &v }

	testCases := []struct {
		name        string
		authorID    int
		req         *UpdateBlogRequest
		expectedErr error
		check       func(t *testing.T, blog *Blog)
	}{
		{
			name:     "update title only",
			authorID: userID,
			req:      &UpdateBlogRequest{Title: strptr("Updated Blog")},
			check: func(t *testing.T, blog *Blog) {
				assert.Equal(t, "Updated Blog", blog.Title)
				assert.Equal(t, "This is a test blog.", blog.Body)
				assert.Equal(t, []string{"test", "go"}, blog.Tags)
			},
		},
		{
			name:     "update body re-derives reading time",
			authorID: userID,
			req:      &UpdateBlogRequest{Body: strptr(strings.Repeat("word ", 450))},
			check: func(t *testing.T, blog *Blog) {
				assert.Equal(t, "3 min read", blog.ReadingTime)
				assert.Equal(t, "Test Blog", blog.Title)
			},
		},
		{
			name:     "update tags from delimited string",
			authorID: userID,
			req:      &UpdateBlogRequest{Tags: strptr(" sql , postgres ")},
			check: func(t *testing.T, blog *Blog) {
				assert.Equal(t, []string{"sql", "postgres"}, blog.Tags)
			},
		},
		{
			name:        "non-author is rejected",
			authorID:    otherID,
			req:         &UpdateBlogRequest{Title: strptr("Hijacked")},
			expectedErr: ErrNotPermitted,
		},
		{
			name:        "empty patch title",
			authorID:    userID,
			req:         &UpdateBlogRequest{Title: strptr("")},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			created, err := createTestBlog(s, userID, StateDraft)
			assert.NoError(t, err)

			blog, err := s.UpdateBlog(ctx, tc.authorID, created.ID, tc.req)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				// the author never changes, whatever the patch contains
				assert.Equal(t, userID, blog.AuthorID)
				tc.check(t, blog)
			} else {
				// a rejected update leaves the blog untouched
				unchanged, err := s.GetBlogByID(ctx, created.ID)
				assert.NoError(t, err)
				assert.Equal(t, created.Title, unchanged.Title)
				assert.Equal(t, created.Body, unchanged.Body)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestUpdateBlogNotFound(t *testing.T) {
	s, _, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	title := "Updated"
	_, err := s.UpdateBlog(context.Background(), userID, 999, &UpdateBlogRequest{Title: &title})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSetBlogState(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	otherID, err := setupTestUser(db, "other2@example.com")
	assert.NoError(t, err)

	ctx := context.Background()

	created, err := createTestBlog(s, userID, StateDraft)
	assert.NoError(t, err)

	// draft -> published
	blog, err := s.SetBlogState(ctx, userID, created.ID, StatePublished)
	assert.NoError(t, err)
	assert.Equal(t, StatePublished, blog.State)

	// publishing again is idempotent
	blog, err = s.SetBlogState(ctx, userID, created.ID, StatePublished)
	assert.NoError(t, err)
	assert.Equal(t, StatePublished, blog.State)
	assert.Equal(t, created.Title, blog.Title)

	// published -> draft is permitted
	blog, err = s.SetBlogState(ctx, userID, created.ID, StateDraft)
	assert.NoError(t, err)
	assert.Equal(t, StateDraft, blog.State)

	// only the two lifecycle states are accepted
	_, err = s.SetBlogState(ctx, userID, created.ID, "retracted")
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"state": "must be either draft or published"}}, err)

	// the gate applies to state changes regardless of current state
	_, err = s.SetBlogState(ctx, otherID, created.ID, StatePublished)
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = s.SetBlogState(ctx, userID, 999, StatePublished)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteBlog(t *testing.T) {
	s, db, cleanup, userID := setupTestEnvironment(t)
	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	otherID, err := setupTestUser(db, "other3@example.com")
	assert.NoError(t, err)

	ctx := context.Background()

	created, err := createTestBlog(s, userID, StatePublished)
	assert.NoError(t, err)

	err = s.DeleteBlog(ctx, otherID, created.ID)
	assert.ErrorIs(t, err, ErrNotPermitted)

	err = s.DeleteBlog(ctx, userID, created.ID)
	assert.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM blogs").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	err = s.DeleteBlog(ctx, userID, created.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
