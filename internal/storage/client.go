package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/metrics"
)

// Outcome is the terminal state of one storage operation.
type Outcome string

// Operation outcomes.
const (
	OutcomeUploaded Outcome = "uploaded"
	OutcomeCopied   Outcome = "copied"
	OutcomeRead     Outcome = "read"
	OutcomeMissing  Outcome = "missing"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDryRun   Outcome = "dry-run"
	OutcomeFailed   Outcome = "failed"
)

// Operation names used in logs and metrics.
const (
	opUpload = "upload"
	opCopy   = "copy"
	opRead   = "read"
	opWrite  = "write"
)

// Options control a single write.
type Options struct {
	// DryRun logs the operation instead of performing it.
	DryRun bool
	// Namespace tags the log line, e.g. "upload" or "promote".
	Namespace string
}

// CopyOptions control a single copy.
type CopyOptions struct {
	Options

	// IgnoreMissing turns a missing source into a skip instead of an error.
	IgnoreMissing bool
}

// Client adds dry-run, missing-source policy, logging and metrics to a Backend.
type Client struct {
	// backend performs the actual storage calls.
	backend Backend
	// metrics records outcomes; nil disables recording.
	metrics *metrics.Recorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetrics records every operation in the recorder.
func WithMetrics(recorder *metrics.Recorder) ClientOption {
	return func(c *Client) {
		c.metrics = recorder
	}
}

// NewClient wraps a backend.
func NewClient(backend Backend, opts ...ClientOption) *Client {
	client := &Client{backend: backend}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Bucket returns the backend bucket name.
func (c *Client) Bucket() string {
	return c.backend.Bucket()
}

// URL returns the backend's public URL of a key.
func (c *Client) URL(key string) string {
	return c.backend.URL(key)
}

// Close releases the backend if it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// UploadFile uploads a local file. The local file must exist even in dry-run.
func (c *Client) UploadFile(ctx context.Context, localPath string, obj Object, opts Options) error {
	started := time.Now()

	if _, err := os.Stat(localPath); err != nil {
		c.observe(opUpload, OutcomeFailed, started)

		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	ctx = c.scope(ctx, opts.Namespace, obj.Key, opts.DryRun)
	logger.InfoKV(ctx, "Uploading file", "local", localPath, "cache_control", obj.CacheControl)

	if opts.DryRun {
		c.observe(opUpload, OutcomeDryRun, started)

		return nil
	}

	if err := c.backend.PutFile(ctx, localPath, obj); err != nil {
		c.observe(opUpload, OutcomeFailed, started)

		return fmt.Errorf("upload %s: %w", obj.Key, err)
	}

	c.observe(opUpload, OutcomeUploaded, started)

	return nil
}

// CopyObject copies an object inside the bucket. The source is checked first,
// in dry-run too; a missing source is skipped or reported as ErrSourceMissing
// depending on IgnoreMissing.
func (c *Client) CopyObject(ctx context.Context, req CopyRequest, opts CopyOptions) (Outcome, error) {
	started := time.Now()
	ctx = c.scope(ctx, opts.Namespace, req.Key, opts.DryRun)

	exists, err := c.backend.Exists(ctx, req.SourceKey)
	if err != nil {
		c.observe(opCopy, OutcomeFailed, started)

		return OutcomeFailed, fmt.Errorf("check %s: %w", req.SourceKey, err)
	}

	if !exists {
		return c.missingSource(ctx, req, opts, started)
	}

	logger.InfoKV(ctx, "Copying object", "source", req.SourceKey, "cache_control", req.CacheControl)

	if opts.DryRun {
		c.observe(opCopy, OutcomeDryRun, started)

		return OutcomeDryRun, nil
	}

	if err = c.backend.Copy(ctx, req); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.missingSource(ctx, req, opts, started)
		}

		c.observe(opCopy, OutcomeFailed, started)

		return OutcomeFailed, fmt.Errorf("copy %s to %s: %w", req.SourceKey, req.Key, err)
	}

	c.observe(opCopy, OutcomeCopied, started)

	return OutcomeCopied, nil
}

// ReadObject downloads an object. Missing objects return ErrNotFound.
func (c *Client) ReadObject(ctx context.Context, key string) ([]byte, error) {
	started := time.Now()

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, ErrNotFound) {
			outcome = OutcomeMissing
		}

		c.observe(opRead, outcome, started)

		return nil, err
	}

	c.observe(opRead, OutcomeRead, started)

	return data, nil
}

// WriteObject uploads an in-memory payload.
func (c *Client) WriteObject(ctx context.Context, obj Object, data []byte, opts Options) error {
	started := time.Now()
	ctx = c.scope(ctx, opts.Namespace, obj.Key, opts.DryRun)

	logger.InfoKV(ctx, "Writing object", "bytes", len(data), "cache_control", obj.CacheControl)

	if opts.DryRun {
		c.observe(opWrite, OutcomeDryRun, started)

		return nil
	}

	if err := c.backend.Put(ctx, obj, data); err != nil {
		c.observe(opWrite, OutcomeFailed, started)

		return fmt.Errorf("write %s: %w", obj.Key, err)
	}

	c.observe(opWrite, OutcomeUploaded, started)

	return nil
}

// missingSource applies the ignore-missing policy.
func (c *Client) missingSource(ctx context.Context, req CopyRequest, opts CopyOptions, started time.Time) (Outcome, error) {
	if opts.IgnoreMissing {
		logger.WarnKV(ctx, "Copy source not found, skipping", "source", req.SourceKey)
		c.observe(opCopy, OutcomeSkipped, started)

		return OutcomeSkipped, nil
	}

	c.observe(opCopy, OutcomeFailed, started)

	return OutcomeFailed, fmt.Errorf("%w: %s", ErrSourceMissing, req.SourceKey)
}

// scope returns a context whose logger carries the operation fields.
func (c *Client) scope(ctx context.Context, namespace, key string, dryRun bool) context.Context {
	if namespace != "" {
		ctx = logger.WithKV(ctx, "namespace", namespace)
	}

	return logger.WithKV(ctx, "bucket", c.backend.Bucket(), "key", key, "dry_run", dryRun)
}

// observe records the operation outcome.
func (c *Client) observe(operation string, outcome Outcome, started time.Time) {
	c.metrics.Observe(operation, string(outcome), time.Since(started))
}
