// Package awsclient builds AWS service clients that can point at a local
// emulator.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	localRegion    = "us-east-1"
	localAccessKey = "local"
	localSecretKey = "local"
)

// LoadConfig loads the default AWS configuration. When endpoint is set the
// region and credentials are fixed so that local emulators accept requests
// without a real account.
func LoadConfig(ctx context.Context, endpoint string) (aws.Config, error) {
	if endpoint == "" {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
		}
		return cfg, nil
	}

	log.Debug().Str("endpoint", endpoint).Msg("Using local AWS endpoint")
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(localRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localAccessKey, localSecretKey, ""),
		),
		awsconfig.WithClientLogMode(aws.LogRetries),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading local AWS config: %w", err)
	}
	return cfg, nil
}

// NewDynamoClient creates a DynamoDB client, optionally bound to endpoint.
func NewDynamoClient(ctx context.Context, endpoint string) (*dynamodb.Client, error) {
	cfg, err := LoadConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewS3Client creates an S3 client. Local endpoints use path-style addressing.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := LoadConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
