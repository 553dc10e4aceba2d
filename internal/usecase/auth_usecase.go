package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"florist/internal/config"
	"florist/internal/domain/model"
	"florist/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type AuthValidator interface {
	ValidateRegister(ctx context.Context, req AuthRegisterRequest) error
	ValidateLogin(ctx context.Context, email, password string) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	auditRepo repository.AuditLogRepository
	validator AuthValidator
	now       func() time.Time
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		auditRepo: auditRepo,
		validator: validator,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := u.validator.ValidateRegister(ctx, req); err != nil {
		return nil, validationError(err)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewHTTPError(http.StatusConflict, "email already used")
		}
		return nil, errDB()
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := u.validator.ValidateLogin(ctx, email, req.Password); err != nil {
		return nil, validationError(err)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errDB()
	}
	if user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	// 停止中かどうかはパスワードが合ってから教える
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	now := u.now()
	if err := u.users.RecordLogin(ctx, user.ID, now); err != nil {
		// ログイン自体は通す
		slog.WarnContext(ctx, "record login failed", "user_id", user.ID, "err", err)
	} else {
		user.LastLoginAt = &now
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errDB()
	}
	if user == nil {
		return nil, errUnauthorized()
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_versionを上げて既存のaccess tokenを全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, adminUserID int64, targetUserID int64) (*ForceLogoutResponse, error) {
	if adminUserID <= 0 {
		return nil, errUnauthorized()
	}
	if targetUserID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	target, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, errDB()
	}
	if target == nil {
		return nil, errNotFound()
	}

	newVersion, err := u.users.BumpTokenVersion(ctx, targetUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNotFound()
	}
	if err != nil {
		return nil, errDB()
	}

	beforeJSON, _ := json.Marshal(map[string]int{"token_version": target.TokenVersion})
	afterJSON, _ := json.Marshal(map[string]int{"token_version": newVersion})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    u.now(),
	}); err != nil {
		return nil, errDB()
	}

	return &ForceLogoutResponse{UserID: targetUserID, NewTokenVersion: newVersion}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	ttl := u.cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	now := u.now()

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(ttl.Seconds()), nil
}

// validatorのエラーは400、それ以外はそのまま
func validationError(err error) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return NewHTTPError(http.StatusBadRequest, err.Error())
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
