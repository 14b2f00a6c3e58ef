package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/watzon/stepbench/internal/config"
)

func TestNewAWSConfig_RequiresRegion(t *testing.T) {
	_, err := NewAWSConfig(context.Background(), config.AWSConfig{}, "")
	require.True(t, errors.Is(err, ErrNoRegion))
}

func TestNewAWSConfig_StaticCredentials(t *testing.T) {
	cfg := config.AWSConfig{
		Region:          "us-west-2",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		SessionToken:    "token",
	}

	awsCfg, err := NewAWSConfig(context.Background(), cfg, "us-east-1")
	require.NoError(t, err)
	require.Equal(t, "us-east-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	require.Equal(t, "secret", creds.SecretAccessKey)
	require.Equal(t, "token", creds.SessionToken)
}

func TestNewClients_FallsBackToConfiguredRegion(t *testing.T) {
	cfg := config.AWSConfig{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Endpoint:        "http://localhost:4566",
	}

	clients, err := NewClients(context.Background(), cfg, "")
	require.NoError(t, err)
	require.Equal(t, "eu-west-1", clients.Region)
	require.NotNil(t, clients.SFN)
	require.NotNil(t, clients.Logs)
	require.NotNil(t, clients.S3)
}
