package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"rastru/cmd/internal/infrastructure/infosimples"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

const (
	envVarsPrefix = "/rastru/prod/"
	ssmRegion     = "us-east-2"
)

type Config struct {
	Production bool
	HTTPAddr   string
	DBPath     string

	LookupMode         infosimples.Mode
	InfosimplesToken   string
	InfosimplesBaseURL string
	LookupTimeout      int
	LookupClientMargin time.Duration
	LookupCacheTTL     time.Duration

	PriceHistoryLimit     int
	NearbyDefaultRadiusKm float64

	// JWTSecret is empty when collector authentication is disabled.
	JWTSecret string

	// S3Bucket is empty when raw payloads are not archived.
	S3Bucket string
	S3Region string

	SnowflakeNode int64
}

// Load exports the environment for the current stage and reads it into
// a Config.
func Load(ctx context.Context) (*Config, error) {
	production := os.Getenv("GO_ENV") == "production"
	if production {
		if err := loadProdEnv(ctx); err != nil {
			return nil, err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Production = production
	return cfg, nil
}

// FromEnv reads the already exported environment.
func FromEnv() (*Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := &Config{
		HTTPAddr:           p.str("HTTP_ADDR", ":7070"),
		DBPath:             p.str("DB_PATH", "database.db"),
		InfosimplesToken:   p.str("INFOSIMPLES_TOKEN", ""),
		InfosimplesBaseURL: p.str("INFOSIMPLES_BASE_URL", infosimples.DefaultBaseURL),
		LookupTimeout:      infosimples.ClampTimeout(p.int("LOOKUP_TIMEOUT_SECONDS", infosimples.DefaultTimeoutSeconds)),
		LookupClientMargin: time.Duration(p.int("LOOKUP_CLIENT_MARGIN_SECONDS", 5)) * time.Second,
		LookupCacheTTL:     time.Duration(p.int("LOOKUP_CACHE_TTL_HOURS", 24)) * time.Hour,
		PriceHistoryLimit:  p.int("PRICE_HISTORY_LIMIT", 100),
		JWTSecret:          p.str("JWT_SECRET", ""),
		S3Bucket:           p.str("S3_BUCKET_NAME", ""),
		S3Region:           p.str("AWS_S3_REGION", ""),
		SnowflakeNode:      int64(p.int("SNOWFLAKE_NODE", 1)),
	}
	cfg.NearbyDefaultRadiusKm = p.float("NEARBY_DEFAULT_RADIUS_KM", 10)

	mode, err := infosimples.ParseMode(p.str("LOOKUP_MODE", string(infosimples.ModeLive)))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LookupMode = mode

	if cfg.LookupMode == infosimples.ModeLive && cfg.InfosimplesToken == "" {
		errs = append(errs, errors.New("INFOSIMPLES_TOKEN is required when LOOKUP_MODE is live"))
	}
	if cfg.S3Bucket != "" && cfg.S3Region == "" {
		errs = append(errs, errors.New("AWS_S3_REGION is required when S3_BUCKET_NAME is set"))
	}
	if cfg.LookupCacheTTL < 0 || cfg.PriceHistoryLimit <= 0 || cfg.NearbyDefaultRadiusKm <= 0 {
		errs = append(errs, errors.New("cache ttl, history limit and default radius must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProdEnv(ctx context.Context) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(ssmRegion))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	var count int
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("unable to load prod environment: %w", err)
		}

		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), envVarsPrefix)
			if err := os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return fmt.Errorf("unable to set environment variable %s: %w", key, err)
			}
			count++
		}
	}
	log.Debugf("loaded %d prod environment variables", count)
	return nil
}

type parser struct {
	errs *[]error
}

func (p parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p parser) int(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s must be an integer, got %q", key, raw))
		return def
	}
	return v
}

func (p parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s must be a number, got %q", key, raw))
		return def
	}
	return v
}
