package catalog

import (
	"context"
	"fmt"
	"io"

	"shopgate/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for reading the catalog document from S3.
type s3Loader struct {
	client *s3.Client
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3Loader creates an S3-based catalog loader.
func NewS3Loader(ctx context.Context, bucket, region, key string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-catalog-loader").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("key", key).
		Msg("S3 catalog loader initialized")

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		key:    key,
		logger: logger,
	}, nil
}

// Load fetches and parses the catalog object from S3.
func (l *s3Loader) Load(ctx context.Context) (string, []model.CatalogEntry, error) {
	source := fmt.Sprintf("s3://%s/%s", l.bucket, l.key)
	l.logger.Info().Str("source", source).Msg("loading catalog from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		l.logger.Error().Err(err).Str("source", source).Msg("failed to get catalog object")
		return "", nil, fmt.Errorf("failed to get catalog from %s: %w", source, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read catalog from %s: %w", source, err)
	}

	defaultASIN, entries, err := parseCatalog(data, source)
	if err != nil {
		return "", nil, err
	}

	l.logger.Info().
		Str("source", source).
		Int("products", len(entries)).
		Str("default_asin", defaultASIN).
		Msg("catalog loaded from S3")

	return defaultASIN, entries, nil
}

// fallbackLoader tries the remote loader first and falls back to the local
// one when the remote load fails.
type fallbackLoader struct {
	remote Loader
	local  Loader
	logger zerolog.Logger
}

// NewFallbackLoader creates a loader that prefers remote and falls back to
// local on failure.
func NewFallbackLoader(remote, local Loader, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		remote: remote,
		local:  local,
		logger: logger.With().Str("component", "fallback-catalog-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context) (string, []model.CatalogEntry, error) {
	defaultASIN, entries, err := l.remote.Load(ctx)
	if err == nil {
		return defaultASIN, entries, nil
	}

	l.logger.Warn().Err(err).Msg("remote catalog load failed, falling back to local")

	return l.local.Load(ctx)
}
