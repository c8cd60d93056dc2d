package aws

import (
	"context"
	"testing"

	"attendance.service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAWSConfig_LocalDev(t *testing.T) {
	cfg, err := NewAWSConfig(context.Background(), config.Config{
		IsLocalDev:  true,
		AWSRegion:   "eu-west-1",
		AWSEndpoint: "http://localstack:4566",
	})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Region)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localstack:4566", *cfg.BaseEndpoint)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}
