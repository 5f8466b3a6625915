package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/storage"
)

const (
	// Extension is appended to every index object name.
	Extension = ".jsonl"
	// ContentType is stored with index objects.
	ContentType = "application/x-ndjson"
)

var errFilenameRequired = errors.New("index filename must be provided")

// Entry describes one promoted artifact.
type Entry struct {
	// Channel is the release channel the artifact was promoted to.
	Channel string
	// Filename is the unversioned artifact name the index is named after.
	Filename string
	// OriginalURL is the public URL of the versioned source object.
	OriginalURL string
	// Version is the promoted version.
	Version string
	// CacheControl is stored with the rewritten index object.
	CacheControl string
}

// Line is one JSON object of an index.
type Line struct {
	// Version is the promoted version.
	Version string `json:"version"`
	// URL points at the immutable versioned artifact.
	URL string `json:"url"`
	// PromotedAt is the promotion time in UTC.
	PromotedAt time.Time `json:"promoted_at"`
	// PromotedBy is user@host of whoever ran the promotion.
	PromotedBy string `json:"promoted_by,omitempty"`
}

// Appender adds lines to channel indexes.
type Appender struct {
	// client reads and writes the index objects.
	client *storage.Client
	// builder places index objects in the channel directory.
	builder keys.Builder
	// host is the public host used for URLs; the backend URL is used when empty.
	host string
	// acl is applied to the rewritten index.
	acl string
	// actor is recorded as PromotedBy.
	actor string
	// now returns the promotion time.
	now func() time.Time
}

// Option configures an Appender.
type Option func(*Appender)

// WithActor records who promotes in every line.
func WithActor(actor string) Option {
	return func(a *Appender) {
		a.actor = actor
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Appender) {
		a.now = now
	}
}

// NewAppender creates an appender writing through client.
func NewAppender(client *storage.Client, builder keys.Builder, host, acl string, opts ...Option) *Appender {
	appender := &Appender{
		client:  client,
		builder: builder,
		host:    host,
		acl:     acl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(appender)
	}

	return appender
}

// ObjectName turns an artifact filename into its index name,
// e.g. "mycli-linux-x64.tar.gz" becomes "mycli-linux-x64-tar-gz.jsonl".
func ObjectName(filename string) string {
	return strings.ReplaceAll(filename, ".", "-") + Extension
}

// Key returns the index key of a filename in a channel.
func (a *Appender) Key(channel, filename string) (string, error) {
	if filename == "" {
		return "", errFilenameRequired
	}

	return a.builder.ChannelKey(channel, ObjectName(filename))
}

// URL returns the public URL of a key.
func (a *Appender) URL(key string) string {
	host := strings.TrimRight(a.host, "/")
	if host == "" {
		return a.client.URL(key)
	}

	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	return host + "/" + key
}

// Append adds one line for entry. In dry-run the line is computed and logged only.
func (a *Appender) Append(ctx context.Context, entry Entry, dryRun bool) error {
	key, err := a.Key(entry.Channel, entry.Filename)
	if err != nil {
		return err
	}

	line, err := json.Marshal(Line{
		Version:    entry.Version,
		URL:        entry.OriginalURL,
		PromotedAt: a.now().UTC().Truncate(time.Second),
		PromotedBy: a.actor,
	})
	if err != nil {
		return fmt.Errorf("encode index line: %w", err)
	}

	ctx = logger.WithKV(ctx, "index", key)

	if dryRun {
		logger.InfoKV(ctx, "Would append index line", "line", string(line), "dry_run", true)

		return nil
	}

	existing, err := a.client.ReadObject(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read index %s: %w", key, err)
	}

	payload := make([]byte, 0, len(existing)+len(line)+2)
	payload = append(payload, existing...)

	if len(payload) > 0 && payload[len(payload)-1] != '\n' {
		payload = append(payload, '\n')
	}

	payload = append(payload, line...)
	payload = append(payload, '\n')

	obj := storage.Object{
		Key:          key,
		ACL:          a.acl,
		CacheControl: entry.CacheControl,
		ContentType:  ContentType,
	}

	if err = a.client.WriteObject(ctx, obj, payload, storage.Options{Namespace: "index"}); err != nil {
		return fmt.Errorf("append index %s: %w", key, err)
	}

	return nil
}

// Parse decodes an index object. Blank lines are ignored.
func Parse(data []byte) ([]Line, error) {
	var lines []Line

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("decode index line %d: %w", len(lines)+1, err)
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}

	return lines, nil
}
