// Package lifecycle keeps packs, items, images and transactions mutually
// consistent. Every mutating operation runs as one database transaction.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/ident"
	"github.com/erazemk/packtrack/internal/model"
)

// DefaultIDRetries is how many pack identifiers are tried before giving up.
const DefaultIDRetries = 5

// Authenticator verifies the secret that gates destructive operations.
type Authenticator interface {
	Authenticate(ctx context.Context, secret string) (*model.User, error)
}

// PackIDSource draws candidate pack identifiers.
type PackIDSource interface {
	PackID() string
}

// Options configures a Coordinator.
type Options struct {
	// IDRetries bounds pack identifier collision retries.
	IDRetries int
	// IDs defaults to a randomly seeded ident.Generator.
	IDs    PackIDSource
	Logger *slog.Logger
}

// Coordinator runs the inventory lifecycle operations.
type Coordinator struct {
	db       *db.DB
	auth     Authenticator
	ids      PackIDSource
	retries  int
	validate *validator.Validate
	log      *slog.Logger
}

// New creates a Coordinator over database.
func New(database *db.DB, auth Authenticator, opts Options) *Coordinator {
	if opts.IDRetries <= 0 {
		opts.IDRetries = DefaultIDRetries
	}
	if opts.IDs == nil {
		opts.IDs = ident.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Coordinator{
		db:       database,
		auth:     auth,
		ids:      opts.IDs,
		retries:  opts.IDRetries,
		validate: newValidator(),
		log:      opts.Logger,
	}
}

// inTx runs fn inside one database transaction. The transaction is rolled
// back on every path that does not reach Commit.
func (c *Coordinator) inTx(ctx context.Context, fn func(tx *db.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("committing transaction", err)
	}
	return nil
}

// authorize checks secret before any write happens.
func (c *Coordinator) authorize(ctx context.Context, op, secret string) error {
	if c.auth == nil {
		return apperr.Unauthorizedf("%s: no authenticator configured", op)
	}
	user, err := c.auth.Authenticate(ctx, secret)
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			c.log.WarnContext(ctx, "rejected credential", "op", op)
		}
		return err
	}
	c.log.DebugContext(ctx, "credential accepted", "op", op, "user_id", user.ID)
	return nil
}

// fail classifies err for the caller and logs storage failures with their stack.
func (c *Coordinator) fail(ctx context.Context, op string, err error) error {
	err = apperr.Storage(op, err)
	if apperr.Is(err, apperr.StorageFailure) {
		c.log.ErrorContext(ctx, "storage failure", "op", op, "error", fmt.Sprintf("%+v", err))
	}
	return err
}
