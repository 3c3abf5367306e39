package mainconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/clinic-portal/internal/config"
)

func TestBuildClientsSkipsAWSWhenNothingConfigured(t *testing.T) {
	clients, err := BuildClients(context.Background(), &appconfig.Config{AWSRegion: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, clients.S3)
	assert.Nil(t, clients.SQS)
	assert.Nil(t, clients.SES)
}

func TestBuildClientsPerFeature(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
		RecordsBucket:       "records",
	}
	clients, err := BuildClients(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, clients.S3)
	assert.Nil(t, clients.SQS)
	assert.Nil(t, clients.SES)
}

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-west-2",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)

	endpoint, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint("SQS", "us-west-2")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", endpoint.URL)

	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint("DynamoDB", "us-west-2")
	assert.Error(t, err)
}
