package validator

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"florist/internal/repository"
	"florist/internal/usecase"
)

var (
	ErrEmailPasswordRequired = errors.New("email and password are required")
	ErrWeakPassword          = errors.New("password must be 8-72 characters and contain a letter and a digit")
	ErrNameTooLong           = errors.New("name is too long")
	// 重複だけは409で返したいのでHTTPErrorにしておく
	ErrEmailAlreadyUsed = usecase.NewHTTPError(http.StatusConflict, "email already used")
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}

const (
	minPasswordLen = 8
	// bcryptは72バイトより後ろを見ない
	maxPasswordBytes = 72
	maxNameLen       = 100
)

type authValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

func (v *authValidator) ValidateRegister(ctx context.Context, req usecase.AuthRegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return ErrEmailPasswordRequired
	}
	if !isEmailLike(email) {
		return ErrInvalidEmail
	}
	if !strongEnough(req.Password) {
		return ErrWeakPassword
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Name)) > maxNameLen {
		return ErrNameTooLong
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" && countDigits(phone) != 10 {
		return ErrInvalidPhone
	}

	// 最終的にはDBのunique制約で弾く
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	return nil
}

// ログイン時は形式だけ。弱いパスワードかどうかは照合に任せる
func (v *authValidator) ValidateLogin(_ context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrEmailPasswordRequired
	}
	if !isEmailLike(email) {
		return ErrInvalidEmail
	}
	return nil
}

func strongEnough(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLen || len(pw) > maxPasswordBytes {
		return false
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
