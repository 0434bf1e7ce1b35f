package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri).SetTimeout(timeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// RetryPolicy bounds ConnectWithRetry; the delay doubles after each failed attempt.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Backoff: time.Second}

type connectFunc func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error)

// ConnectWithRetry tolerates MongoDB starting after the service (compose/k8s startup races).
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, policy RetryPolicy) (*mongo.Client, error) {
	return connectWithRetry(ctx, ConnectMongo, uri, timeout, policy)
}

func connectWithRetry(ctx context.Context, connect connectFunc, uri string, timeout time.Duration, policy RetryPolicy) (*mongo.Client, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	backoff := policy.Backoff
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		client, err := connect(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, policy.Attempts, err)
		if attempt == policy.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("mongo unavailable after %d attempts: %w", policy.Attempts, lastErr)
}
