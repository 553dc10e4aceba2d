package validator

import (
	"errors"
	"strings"
	"unicode/utf8"

	"florist/internal/usecase"
)

const maxReviewTextLen = 2000

var (
	ErrReviewRequired = errors.New("name, email and review are required")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrReviewTooLong  = errors.New("review is too long")
)

type reviewValidator struct{}

func NewReviewValidator() usecase.ReviewValidator {
	return reviewValidator{}
}

func (reviewValidator) ValidateReview(name, email string, rating int, text string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(text) == "" {
		return ErrReviewRequired
	}
	if !isEmailLike(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(text) > maxReviewTextLen {
		return ErrReviewTooLong
	}
	return nil
}
