package awsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLocalEndpoint(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), "http://localhost:4566")
	require.NoError(t, err)
	assert.Equal(t, localRegion, cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, localAccessKey, creds.AccessKeyID)
	assert.Equal(t, localSecretKey, creds.SecretAccessKey)
}

func TestNewClientsWithLocalEndpoint(t *testing.T) {
	ctx := context.Background()

	dynamo, err := NewDynamoClient(ctx, "http://localhost:8001")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", *dynamo.Options().BaseEndpoint)

	s3Client, err := NewS3Client(ctx, "http://localhost:9000")
	require.NoError(t, err)
	assert.True(t, s3Client.Options().UsePathStyle)
}
