// Package localstack starts LocalStack containers for integration tests.
package localstack

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tclocalstack "github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

// LocalStack describes a running LocalStack container.
type LocalStack struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// StartLocalStack starts a LocalStack container for the test and registers
// its termination with t.Cleanup.
func StartLocalStack(t *testing.T) *LocalStack {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tclocalstack.Run(ctx,
		"localstack/localstack:latest",
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start LocalStack container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate LocalStack container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return &LocalStack{
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
	}
}

// RawClient returns an SDK client for setup and verification outside s4.
func (l *LocalStack) RawClient() *s3.Client {
	return s3.New(s3.Options{
		Region:       l.Region,
		BaseEndpoint: aws.String(l.Endpoint),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: l.AccessKey, SecretAccessKey: l.SecretKey}, nil
		}),
	})
}

// CreateBucket creates a uniquely named bucket and returns its name.
func (l *LocalStack) CreateBucket(ctx context.Context, t *testing.T) string {
	t.Helper()

	name := "s4-test-" + uuid.NewString()[:8]
	if _, err := l.RawClient().CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}); err != nil {
		t.Fatalf("Failed to create bucket %s: %v", name, err)
	}
	return name
}
