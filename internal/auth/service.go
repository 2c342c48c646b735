package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginDisabled      = errors.New("login disabled")
)

const tokenTTL = 8 * time.Hour

// Account is a local login. Hash is a bcrypt hash.
type Account struct {
	Username string
	Hash     string
	Role     string
}

type AuthService struct {
	hmac     []byte
	accounts map[string]Account
	now      func() time.Time
}

func NewAuthService(secret string, accounts ...Account) *AuthService {
	a := &AuthService{hmac: []byte(secret), accounts: map[string]Account{}, now: time.Now}
	for _, acc := range accounts {
		if acc.Username == "" || acc.Hash == "" {
			continue
		}
		a.accounts[acc.Username] = acc
	}
	return a
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "examlab",
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// Login checks a username/password pair and returns a signed token.
func (a *AuthService) Login(username, password string) (string, Account, error) {
	if len(a.accounts) == 0 {
		return "", Account{}, ErrLoginDisabled
	}
	acc, ok := a.accounts[username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.Hash), []byte(password)) != nil {
		return "", Account{}, ErrInvalidCredentials
	}
	tok, err := a.IssueJWT(acc.Username, acc.Role)
	if err != nil {
		return "", Account{}, err
	}
	return tok, acc, nil
}
