// Package boot holds the server's startup wiring: AWS config, DynamoDB
// tables, and SSM-backed secrets. Extracted so main stays a short
// composition of helpers.
package boot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/logging"
	"github.com/tmercier/vinyl-vault/internal/store"
)

// Default table names, overridable per environment.
const (
	defaultReviewsTable     = "AlbumReviews"
	defaultCredentialsTable = "UserDiscogsCredentials"
)

// AWSClients holds the core AWS SDK clients used across the server.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitStore creates the DynamoDB store over the reviews and credentials
// tables. Table names come from REVIEWS_TABLE and CREDENTIALS_TABLE when
// set, otherwise the production defaults.
func InitStore(cfg aws.Config) *store.DynamoStore {
	reviewsTable := logging.EnvOrDefault("REVIEWS_TABLE", defaultReviewsTable)
	credentialsTable := logging.EnvOrDefault("CREDENTIALS_TABLE", defaultCredentialsTable)
	ddbClient := dynamodb.NewFromConfig(cfg)
	return store.NewDynamoStore(ddbClient, reviewsTable, credentialsTable)
}

// TableNames returns the configured table names for startup logging.
func TableNames() (reviews, credentials string) {
	return logging.EnvOrDefault("REVIEWS_TABLE", defaultReviewsTable),
		logging.EnvOrDefault("CREDENTIALS_TABLE", defaultCredentialsTable)
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store if not
// already set via GEMINI_API_KEY env var. Fatals on error.
func LoadGeminiKey(ssmClient *ssm.Client) {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return
	}
	paramName := logging.EnvOrDefault("SSM_GEMINI_KEY_PARAM", "/vinyl-vault/prod/gemini-api-key")
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read API key from SSM")
	}
	os.Setenv("GEMINI_API_KEY", *result.Parameter.Value)
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
}

// LoadJWTSecret returns the HMAC secret used to verify session tokens.
// Prefers the VINYL_JWT_SECRET env var, then SSM. Fatals when neither is set.
func LoadJWTSecret(ssmClient *ssm.Client) []byte {
	if secret := os.Getenv("VINYL_JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	paramName := logging.EnvOrDefault("SSM_JWT_SECRET_PARAM", "/vinyl-vault/prod/jwt-secret")
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read JWT secret from SSM")
	}
	return []byte(*result.Parameter.Value)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
