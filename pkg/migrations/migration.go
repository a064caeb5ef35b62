package migrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Migration represents an applied database migration
type Migration struct {
	Version     string    `bson:"version"`     // e.g., "001_create_state_members_indexes"
	Description string    `bson:"description"` // Human-readable description
	AppliedAt   time.Time `bson:"applied_at"`  // When the migration was applied
	Checksum    string    `bson:"checksum"`    // SHA256 of version and description
}

// MigrationFunc defines a migration function signature
type MigrationFunc func(ctx context.Context, db *mongo.Database) error

// RegisteredMigration holds migration metadata and functions
type RegisteredMigration struct {
	Version     string
	Description string
	Up          MigrationFunc // Apply migration
	Down        MigrationFunc // Rollback migration (optional)
}

// Runner manages database migrations
type Runner struct {
	db         *mongo.Database
	collection *mongo.Collection
	migrations []RegisteredMigration
	out        io.Writer
}

// NewRunner creates a new migration runner that reports progress to out
func NewRunner(db *mongo.Database, out io.Writer) *Runner {
	return &Runner{
		db:         db,
		collection: db.Collection("_migrations"),
		migrations: make([]RegisteredMigration, 0),
		out:        out,
	}
}

// Register adds a migration to the runner
func (r *Runner) Register(migration RegisteredMigration) {
	r.migrations = append(r.migrations, migration)
}

// Pending returns the registered migrations that have not been applied yet
func (r *Runner) Pending(ctx context.Context) ([]RegisteredMigration, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	return pendingMigrations(r.migrations, applied), nil
}

// Run executes all pending migrations in registration order.
//
// Index builds are not allowed inside multi-document transactions on
// populated collections, so each Up runs on its own and the bookkeeping
// record is written only after it succeeds. Up functions must be
// idempotent.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureMigrationsIndex(ctx); err != nil {
		return fmt.Errorf("failed to create migrations index: %w", err)
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range pending {
		fmt.Fprintf(r.out, "🔄 Running migration: %s - %s\n", migration.Version, migration.Description)

		if err := migration.Up(ctx, r.db); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Version, err)
		}

		record := Migration{
			Version:     migration.Version,
			Description: migration.Description,
			AppliedAt:   time.Now().UTC(),
			Checksum:    calculateChecksum(migration),
		}
		if _, err := r.collection.InsertOne(ctx, record); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		fmt.Fprintf(r.out, "✅ Migration %s completed successfully\n", migration.Version)
	}

	return nil
}

// Rollback rolls back the last n applied migrations
func (r *Runner) Rollback(ctx context.Context, steps int) error {
	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if steps > len(applied) {
		steps = len(applied)
	}

	migrationMap := make(map[string]RegisteredMigration)
	for _, m := range r.migrations {
		migrationMap[m.Version] = m
	}

	for i := len(applied) - 1; i >= len(applied)-steps; i-- {
		version := applied[i].Version
		migration, exists := migrationMap[version]
		if !exists {
			return fmt.Errorf("migration %s not found in registered migrations", version)
		}

		if migration.Down == nil {
			fmt.Fprintf(r.out, "⚠️  Migration %s has no rollback function, skipping\n", version)
			continue
		}

		fmt.Fprintf(r.out, "🔄 Rolling back migration: %s\n", version)

		if err := migration.Down(ctx, r.db); err != nil {
			return fmt.Errorf("rollback %s failed: %w", version, err)
		}
		if _, err := r.collection.DeleteOne(ctx, bson.M{"version": version}); err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", version, err)
		}

		fmt.Fprintf(r.out, "✅ Rollback %s completed successfully\n", version)
	}

	return nil
}

// Status prints the current migration status
func (r *Runner) Status(ctx context.Context) error {
	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedMap := make(map[string]Migration)
	for _, m := range applied {
		appliedMap[m.Version] = m
	}

	fmt.Fprintln(r.out, "\n📊 Migration Status:")

	for _, migration := range r.migrations {
		status := "⏳ Pending"
		appliedAt := ""

		if record, exists := appliedMap[migration.Version]; exists {
			status = "✅ Applied"
			appliedAt = fmt.Sprintf(" (at %s)", record.AppliedAt.Format("2006-01-02 15:04:05"))
		}

		fmt.Fprintf(r.out, "%s %s - %s%s\n", status, migration.Version, migration.Description, appliedAt)
	}

	fmt.Fprintf(r.out, "\nTotal: %d migrations (%d applied, %d pending)\n",
		len(r.migrations), len(applied), len(r.migrations)-len(applied))

	return nil
}

// ensureMigrationsIndex creates an index on the migrations collection
func (r *Runner) ensureMigrationsIndex(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := r.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (r *Runner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	versions := make(map[string]bool, len(applied))
	for _, m := range applied {
		versions[m.Version] = true
	}
	return versions, nil
}

// getAppliedMigrations retrieves all applied migrations
func (r *Runner) getAppliedMigrations(ctx context.Context) ([]Migration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var migrations []Migration
	if err := cursor.All(ctx, &migrations); err != nil {
		return nil, err
	}

	return migrations, nil
}

func pendingMigrations(registered []RegisteredMigration, applied map[string]bool) []RegisteredMigration {
	pending := make([]RegisteredMigration, 0, len(registered))
	for _, m := range registered {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// calculateChecksum generates a checksum for migration integrity
func calculateChecksum(migration RegisteredMigration) string {
	sum := sha256.Sum256([]byte(migration.Version + ":" + migration.Description))
	return hex.EncodeToString(sum[:])
}
