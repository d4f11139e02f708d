package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/userservice"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrNotPermitted     = errors.New("not the author of this blog")
	ErrAuthorForeignKey = errors.New("author does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError reports whether err is a violation of the named foreign key
// constraint.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// blogPatch carries the partial-update fields. Nil pointers leave the stored
// column untouched.
type blogPatch struct {
	title       *string
	description *string
	body        *string
	tags        *[]string
	readingTime *string
}

func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, description, body, tags, state, reading_time, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, read_count, created_at, updated_at, version`

	args := []any{
		blog.Title,
		blog.Description,
		blog.Body,
		pq.Array(blog.Tags),
		string(blog.State),
		blog.ReadingTime,
		blog.AuthorID,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&blog.ID, &blog.ReadCount, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_author_id_fkey"):
			return ErrAuthorForeignKey
		default:
			return err
		}
	}

	return nil
}

// getByID increments the read count and returns the blog with its author
// resolved. The increment and the read are a single statement so concurrent
// fetches never lose a count.
func (m *BlogModel) getByID(ctx context.Context, id int) (*Blog, error) {
	query := `
		WITH fetched AS (
			UPDATE blogs
			SET read_count = read_count + 1
			WHERE id = $1
			RETURNING id, title, description, body, tags, state, reading_time, read_count, author_id, created_at, updated_at, version
		)
		SELECT b.id, b.title, b.description, b.body, b.tags, b.state, b.reading_time, b.read_count, b.author_id, b.created_at, b.updated_at, b.version,
			u.id, u.first_name, u.last_name, u.email
		FROM fetched b
		JOIN users u ON u.id = b.author_id`

	blog, err := scanBlogWithAuthor(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return blog, nil
}

// getByAuthor returns the author's own blogs, drafts included, newest first.
// An empty state matches both states.
func (m *BlogModel) getByAuthor(ctx context.Context, authorID int, state State, limit, offset int) ([]Blog, error) {
	query := `
		SELECT id, title, description, body, tags, state, reading_time, read_count, author_id, created_at, updated_at, version
		FROM blogs
		WHERE author_id = $1 AND ($2 = '' OR state = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, authorID, string(state), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Description, &blog.Body, pq.Array(&blog.Tags), &blog.State, &blog.ReadingTime, &blog.ReadCount, &blog.AuthorID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// getPublished returns published blogs only, with the author resolved. The
// search term is matched case-insensitively against title, description and
// each tag. orderBy and order must already be validated by the caller since
// they are interpolated into the query.
func (m *BlogModel) getPublished(ctx context.Context, search, orderBy, order string, limit, offset int) ([]Blog, error) {
	query := fmt.Sprintf(`
		SELECT b.id, b.title, b.description, b.body, b.tags, b.state, b.reading_time, b.read_count, b.author_id, b.created_at, b.updated_at, b.version,
			u.id, u.first_name, u.last_name, u.email
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		WHERE b.state = 'published'
		AND ($1 = '' OR b.title ILIKE '%%' || $1 || '%%' OR b.description ILIKE '%%' || $1 || '%%'
			OR EXISTS (SELECT 1 FROM unnest(b.tags) AS tag WHERE tag ILIKE '%%' || $1 || '%%'))
		ORDER BY b.%s %s, b.id DESC
		LIMIT $2 OFFSET $3`, orderBy, order)

	rows, err := m.db.QueryContext(ctx, query, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		blog, err := scanBlogWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// update applies a partial update. Ownership is part of the write predicate,
// so a non-author can never mutate the row even under concurrent access.
func (m *BlogModel) update(ctx context.Context, id, authorID int, patch *blogPatch) (*Blog, error) {
	query := `
		UPDATE blogs
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			body = COALESCE($3, body),
			tags = COALESCE($4, tags),
			reading_time = COALESCE($5, reading_time),
			updated_at = NOW(),
			version = version + 1
		WHERE id = $6 AND author_id = $7
		RETURNING id, title, description, body, tags, state, reading_time, read_count, author_id, created_at, updated_at, version`

	var tags any
	if patch.tags != nil {
		tags = pq.Array(*patch.tags)
	}

	args := []any{
		patch.title,
		patch.description,
		patch.body,
		tags,
		patch.readingTime,
		id,
		authorID,
	}

	var blog Blog
	err := m.db.QueryRowContext(ctx, query, args...).Scan(&blog.ID, &blog.Title, &blog.Description, &blog.Body, pq.Array(&blog.Tags), &blog.State, &blog.ReadingTime, &blog.ReadCount, &blog.AuthorID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, m.ownershipError(ctx, id)
		default:
			return nil, err
		}
	}

	return &blog, nil
}

// setState persists a state transition, gated on ownership the same way as
// update. Re-applying the current state is a no-op beyond the version bump.
func (m *BlogModel) setState(ctx context.Context, id, authorID int, state State) (*Blog, error) {
	query := `
		UPDATE blogs
		SET state = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND author_id = $3
		RETURNING id, title, description, body, tags, state, reading_time, read_count, author_id, created_at, updated_at, version`

	var blog Blog
	err := m.db.QueryRowContext(ctx, query, string(state), id, authorID).Scan(&blog.ID, &blog.Title, &blog.Description, &blog.Body, pq.Array(&blog.Tags), &blog.State, &blog.ReadingTime, &blog.ReadCount, &blog.AuthorID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, m.ownershipError(ctx, id)
		default:
			return nil, err
		}
	}

	return &blog, nil
}

func (m *BlogModel) delete(ctx context.Context, id, authorID int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1 AND author_id = $2`

	res, err := m.db.ExecContext(ctx, query, id, authorID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return m.ownershipError(ctx, id)
	}

	return nil
}

// ownershipError distinguishes a missing blog from one owned by somebody
// else, after a conditional write matched no rows.
func (m *BlogModel) ownershipError(ctx context.Context, id int) error {
	var authorID int
	err := m.db.QueryRowContext(ctx, "SELECT author_id FROM blogs WHERE id = $1", id).Scan(&authorID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return ErrNotPermitted
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlogWithAuthor(row rowScanner) (*Blog, error) {
	var blog Blog
	blog.Author = &userservice.User{}

	err := row.Scan(
		&blog.ID,
		&blog.Title,
		&blog.Description,
		&blog.Body,
		pq.Array(&blog.Tags),
		&blog.State,
		&blog.ReadingTime,
		&blog.ReadCount,
		&blog.AuthorID,
		&blog.CreatedAt,
		&blog.UpdatedAt,
		&blog.Version,
		&blog.Author.ID,
		&blog.Author.FirstName,
		&blog.Author.LastName,
		&blog.Author.Email,
	)
	if err != nil {
		return nil, err
	}

	return &blog, nil
}
