package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"statecraft/pkg/apperrors"
	"statecraft/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// Transactor runs fn inside a single logical transaction. Calls made with a
// context that already carries a transaction join it instead of nesting.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, cfg *config.Config) (*MongoDB, error) {
	// Create client options
	opts := options.Client().ApplyURI(cfg.MongoURI)

	// Only add OpenTelemetry instrumentation if telemetry is enabled
	if cfg.EnableTelemetry {
		opts.SetMonitor(otelmongo.NewMonitor())
	}

	// Set connection timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.MongoDatabase)

	slog.Info("Connected to MongoDB database", "database", cfg.MongoDatabase)

	return &MongoDB{
		Client:   client,
		Database: database,
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

func (m *MongoDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.Client.Ping(ctx, nil)
}

// WithTransaction runs fn in a snapshot transaction with majority write
// concern. The transaction is committed once and never retried; any error
// from fn aborts it. Hooks queued with AfterCommit run after the commit.
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	scopeCtx, scope := NewCommitScope(ctx)
	err = mongo.WithSession(scopeCtx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if err := fn(sc); err != nil {
			if abortErr := sc.AbortTransaction(context.WithoutCancel(sc)); abortErr != nil {
				slog.WarnContext(sc, "Failed to abort transaction", "error", abortErr)
			}
			return err
		}
		if err := sc.CommitTransaction(sc); err != nil {
			return apperrors.Wrap(apperrors.KindStorageFailure, apperrors.CodeInternal, "failed to commit transaction", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	scope.Flush(ctx)
	return nil
}

// MapWriteError converts driver write errors into domain errors. Duplicate
// key violations become Conflict with the supplied code.
func MapWriteError(err error, conflict *apperrors.Error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if conflict == nil {
			conflict = apperrors.ErrDuplicate
		}
		return &apperrors.Error{Kind: conflict.Kind, Code: conflict.Code, Message: conflict.Message, Cause: err}
	}
	return err
}

// IsNotFound reports whether err is a driver "no documents" error.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
