package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/persistence"
	"github.com/tcriess/lightspeed-court/types"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ModPassUser is the account name reported for logins with the shared moderator password.
const ModPassUser = "moderator"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticator resolves /login arguments to an account and its role.
type Authenticator struct {
	Cfg       *config.Config
	Persister persistence.Persister
	Roles     map[string]types.Role
}

// Login accepts three forms:
//
//	<modpass>                      the shared moderator password, grants SUPER
//	<username> <password>          an account from the user store
//	oidc <provider> <id token>     an account from the user store, looked up by the token's email claim
func (a *Authenticator) Login(ctx context.Context, args []string) (string, types.Role, error) {
	switch {
	case len(args) == 1:
		if a.Cfg.ModPass == "" || args[0] != a.Cfg.ModPass {
			return "", types.Role{}, ErrInvalidCredentials
		}
		return ModPassUser, a.Roles["SUPER"], nil

	case len(args) == 3 && args[0] == "oidc":
		email, err := Authenticate(ctx, args[2], args[1], a.Cfg)
		if err != nil {
			return "", types.Role{}, err
		}
		if a.Persister == nil {
			return "", types.Role{}, ErrInvalidCredentials
		}
		user, err := a.Persister.GetUserByEmail(email)
		if err != nil {
			return "", types.Role{}, a.lookupError(err)
		}
		return user.Username, a.role(user), nil

	case len(args) == 2:
		if a.Persister == nil {
			return "", types.Role{}, ErrInvalidCredentials
		}
		user, err := a.Persister.GetUser(args[0])
		if err != nil {
			return "", types.Role{}, a.lookupError(err)
		}
		if !CheckPassword(user.PasswordHash, args[1]) {
			return "", types.Role{}, ErrInvalidCredentials
		}
		return user.Username, a.role(user), nil
	}
	return "", types.Role{}, ErrInvalidCredentials
}

func (a *Authenticator) role(user *types.User) types.Role {
	if role, ok := a.Roles[user.Role]; ok {
		return role
	}
	return a.Roles["NONE"]
}

func (a *Authenticator) lookupError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}
