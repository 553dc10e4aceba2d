package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）
	PostgresSSLMode  string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSなどで使う）

	// カートキャッシュ・ゲームの1日1回制限
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartCacheTTL  time.Duration

	// 商品画像・レビュー写真
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string

	// 決済
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentRelayURL   string // 設定されていればRazorpayではなく中継APIを呼ぶ
	PaymentFallback   bool   // 決済注文の作成に失敗したらローカルで作る
	Currency          string

	// 決済ウィジェットの表示
	StoreName  string
	ThemeColor string

	// /api/create-order などのIPごとの制限
	RelayRPS   float64
	RelayBurst int
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        getenv("S3_REGION", "ap-south-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		PaymentRelayURL:   os.Getenv("PAYMENT_RELAY_URL"),
		Currency:          getenv("CURRENCY", "INR"),

		StoreName:  getenv("STORE_NAME", "Phoolishh Loveee"),
		ThemeColor: getenv("THEME_COLOR", "#ec4899"),
	}

	if cfg.AccessTokenTTL, err = durationOr("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CartCacheTTL, err = durationOr("CART_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = intOr("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RelayBurst, err = intOr("RELAY_BURST", 10); err != nil {
		return Config{}, err
	}
	if cfg.RelayRPS, err = floatOr("RELAY_RPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.PaymentFallback, err = boolOr("PAYMENT_FALLBACK", true); err != nil {
		return Config{}, err
	}

	//必須チェック（空なら起動しない）
	for _, r := range []struct{ key, val string }{
		{"PORT", cfg.Port},
		{"POSTGRES_USER", cfg.PostgresUser},
		{"POSTGRES_PASSWORD", cfg.PostgresPassword},
		{"POSTGRES_DB", cfg.PostgresDB},
		{"POSTGRES_HOST", cfg.PostgresHost},
		{"JWT_SECRET", cfg.JWTSecret},
		{"GO_ENV", cfg.GoEnv},
		{"FE_URL", cfg.FEURL},
	} {
		if r.val == "" {
			return Config{}, fmt.Errorf("%s is required", r.key)
		}
	}
	if cfg.RelayRPS <= 0 || cfg.RelayBurst <= 0 {
		return Config{}, fmt.Errorf("RELAY_RPS and RELAY_BURST must be positive")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatOr(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true/false: %w", key, err)
	}
	return b, nil
}

// "15m" "24h" など
func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
