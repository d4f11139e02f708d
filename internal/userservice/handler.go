package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid authentication credentials")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, tm *TokenManager, c *common.Cache) *UserService {
	return &UserService{
		m:  newUserModel(db),
		mb: mb,
		tm: tm,
		c:  c,
	}
}

type RegisterUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// RegisterUser creates a new user account and publishes a user.signed_up
// event so the mail service can send a welcome email.
func (s *UserService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*User, error) {
	v := common.NewValidator()
	validateName(v, req.FirstName, "first_name")
	validateName(v, req.LastName, "last_name")
	validateEmail(v, req.Email)
	validatePassword(v, req.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	if err := u.Password.set(req.Password); err != nil {
		return nil, err
	}

	if err := s.m.insert(ctx, &u); err != nil {
		return nil, err
	}

	data := struct {
		Email     string
		FirstName string
	}{
		Email:     u.Email,
		FirstName: u.FirstName,
	}

	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	if err := s.mb.Publish(ctx, eventData, common.UserSignedUpKey, common.UserExchange); err != nil {
		return nil, err
	}

	return &u, nil
}

// LoginUser verifies the email and password pair and issues a signed
// credential token. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*User, *AuthToken, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	user, err := s.m.getByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil, ErrAuthenticationFailure
		default:
			return nil, nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrAuthenticationFailure
	}

	token, expiry, err := s.tm.Sign(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, &AuthToken{Plain: token, Expiry: expiry}, nil
}

// GetUserByID returns the user with the password digest stripped. Results are
// cached briefly since the identity gate calls this on every authenticated
// request.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyUserByID(id)
	if cached, ok := s.c.Get(key); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user, userCacheTime)

	return user, nil
}

// AuthenticateToken resolves a credential token to the user it references.
// This is the read side of the identity gate: an invalid, expired or orphaned
// token comes back as ErrInvalidToken.
func (s *UserService) AuthenticateToken(ctx context.Context, token string) (*User, error) {
	userID, err := s.tm.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	return user, nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
