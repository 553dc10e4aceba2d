package validator

import (
	"errors"
	"strings"
	"unicode"

	"florist/internal/domain/model"
	"florist/internal/usecase"
)

var (
	ErrShippingRequired = errors.New("please fill in all required shipping fields")
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrInvalidPhone     = errors.New("please enter a valid 10-digit phone number")
)

type checkoutValidator struct{}

func NewCheckoutValidator() usecase.ShippingValidator {
	return checkoutValidator{}
}

// 必須項目・メール形式・電話番号（数字だけ数えて10桁）
func (checkoutValidator) ValidateShipping(s model.ShippingDetails) error {
	for _, f := range []string{s.Name, s.Email, s.Phone, s.Address, s.City, s.State, s.Zip} {
		if strings.TrimSpace(f) == "" {
			return ErrShippingRequired
		}
	}
	if !isEmailLike(strings.TrimSpace(s.Email)) {
		return ErrInvalidEmail
	}
	if countDigits(s.Phone) != 10 {
		return ErrInvalidPhone
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
