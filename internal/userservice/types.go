package userservice

import (
	"database/sql"
	"time"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
)

const (
	// AccessTokenTime is the validity of a signed credential token.
	AccessTokenTime time.Duration = time.Hour

	// userCacheTime bounds how stale a cached token->user resolution can be.
	userCacheTime time.Duration = 5 * time.Minute
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m  *UserModel
	mb common.MessageProducer
	tm *TokenManager
	c  *common.Cache
}

type UserModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"-"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// AuthToken is a signed credential token and its expiry. The boundary layer
// transmits it in an HTTP-only cookie.
type AuthToken struct {
	Plain  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}
