// Package persistence saves and restores workspace state as independent
// blobs in a store.BlobStore.
//
// Four blobs are kept under a shared key prefix:
//
//	<prefix>files_data    the file tree
//	<prefix>settings      project settings
//	<prefix>ui_state      open tabs, active tab and view
//	<prefix>auth_session  remembered sign-in (only when requested)
//
// Each blob loads on its own: a missing or corrupt blob falls back to its
// default without affecting the others. Writes are last-write-wins per
// blob and are not atomic across blobs.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/metrics"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/store"
	"github.com/marmos91/dittows/pkg/tree"
)

// Logical blob names, used in logs, metrics and Loaded.Recovered.
const (
	BlobFiles     = "files"
	BlobSettings  = "settings"
	BlobSessionUI = "sessionUI"
	BlobAuth      = "auth"
)

// DefaultKeyPrefix namespaces all keys written by the gateway.
const DefaultKeyPrefix = "pyhost_v1_"

// keySuffix maps a logical blob to the suffix of its store key.
var keySuffix = map[string]string{
	BlobFiles:     "files_data",
	BlobSettings:  "settings",
	BlobSessionUI: "ui_state",
	BlobAuth:      "auth_session",
}

// Options configures a Gateway.
type Options struct {
	// KeyPrefix is prepended to every store key (default DefaultKeyPrefix)
	KeyPrefix string

	// Codec selects the serialization for writes (default CodecJSON)
	Codec Codec

	// Compression selects payload compression for writes (default none)
	Compression Compression

	// RootPath is the fixed tree root path (default tree.DefaultRootPath)
	RootPath string

	// RootName is the display name of a seeded root (default tree.DefaultRootName)
	RootName string
}

func (o *Options) applyDefaults() {
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.Codec == 0 {
		o.Codec = CodecJSON
	}
	if o.RootPath == "" {
		o.RootPath = tree.DefaultRootPath
	}
	if o.RootName == "" {
		o.RootName = tree.DefaultRootName
	}
}

// Loaded is the state restored by Load.
type Loaded struct {
	Tree     tree.Tree
	Settings settings.Settings
	UI       session.UI

	// Auth is the remembered sign-in, nil when none is stored
	Auth *Auth

	// Recovered lists blobs that were present but unreadable and were
	// replaced by their default
	Recovered []string
}

// Gateway reads and writes workspace blobs.
//
// Thread Safety:
// Safe for concurrent use to the extent the underlying BlobStore is. The
// workspace serializes calls so writes land in commit order.
type Gateway struct {
	blobs   store.BlobStore
	opts    Options
	metrics metrics.WorkspaceMetrics
}

// NewGateway creates a gateway over blobs. A nil m disables metrics.
func NewGateway(blobs store.BlobStore, opts Options, m metrics.WorkspaceMetrics) *Gateway {
	opts.applyDefaults()
	return &Gateway{
		blobs:   blobs,
		opts:    opts,
		metrics: metrics.OrNoOp(m),
	}
}

// Key returns the store key of a logical blob.
func (g *Gateway) Key(blob string) string {
	return g.opts.KeyPrefix + keySuffix[blob]
}

// RootPath returns the configured tree root path.
func (g *Gateway) RootPath() string {
	return g.opts.RootPath
}

// Defaults returns the state of a workspace with nothing persisted: the
// seed tree, default settings and main.py open and active.
func (g *Gateway) Defaults() Loaded {
	main := tree.ChildPath(g.opts.RootPath, tree.SeedMainFile)
	return Loaded{
		Tree:     tree.Seed(g.opts.RootPath, g.opts.RootName),
		Settings: settings.Default(),
		UI: session.UI{
			OpenPaths:  []string{main},
			ActivePath: main,
			View:       session.ViewIDE,
		},
	}
}

// Load restores every blob independently. It never fails: an absent blob
// yields its default, and an unreadable one (store error, bad frame,
// checksum mismatch, decode or validation failure) yields its default and
// is listed in Recovered.
func (g *Gateway) Load(ctx context.Context) Loaded {
	out := g.Defaults()

	var nodes []wireNode
	if g.read(ctx, BlobFiles, &nodes, &out.Recovered, func() error {
		t, err := decodeTree(nodes, g.opts.RootPath)
		if err != nil {
			return err
		}
		out.Tree = t
		return nil
	}) {
		logger.Debug("Loaded file tree: %d nodes", out.Tree.Len())
	}

	var s settings.Settings
	g.read(ctx, BlobSettings, &s, &out.Recovered, func() error {
		decoded, err := decodeSettings(s)
		if err != nil {
			return err
		}
		out.Settings = decoded
		return nil
	})

	var ui wireUI
	g.read(ctx, BlobSessionUI, &ui, &out.Recovered, func() error {
		decoded, err := decodeUI(ui)
		if err != nil {
			return err
		}
		out.UI = decoded
		return nil
	})

	var auth Auth
	g.read(ctx, BlobAuth, &auth, &out.Recovered, func() error {
		if err := ValidateAuth(auth); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out.Auth = &auth
		return nil
	})

	return out
}

// read loads one blob into v and runs accept on it. Any failure leaves
// the default in place. Reports whether the stored value was accepted.
func (g *Gateway) read(ctx context.Context, blob string, v any, recovered *[]string, accept func() error) bool {
	key := g.Key(blob)

	data, err := g.blobs.Get(ctx, key)
	if errors.Is(err, store.ErrBlobNotFound) {
		g.metrics.RecordBlobRead(blob, metrics.ReadAbsent)
		return false
	}
	if err == nil {
		err = decodeFrame(data, v)
	}
	if err == nil {
		err = accept()
	}
	if err != nil {
		logger.Warn("Discarding %s blob %q, using default: %v", blob, key, err)
		g.metrics.RecordBlobRead(blob, metrics.ReadRecovered)
		*recovered = append(*recovered, blob)
		return false
	}

	g.metrics.RecordBlobRead(blob, metrics.ReadLoaded)
	return true
}

// Save writes the files, settings and sessionUI blobs, in that order.
// Failures are logged and counted, never returned: the in-memory state
// stays authoritative and the next save retries.
func (g *Gateway) Save(ctx context.Context, t tree.Tree, s settings.Settings, ui session.UI) {
	g.write(ctx, BlobFiles, encodeTree(t))
	g.write(ctx, BlobSettings, s)
	g.write(ctx, BlobSessionUI, encodeUI(ui))
}

// SaveAuth stores the remembered sign-in.
func (g *Gateway) SaveAuth(ctx context.Context, a Auth) {
	g.write(ctx, BlobAuth, a)
}

// ClearSessionOnly removes the auth and sessionUI blobs, leaving the tree
// and settings intact. Used on sign-out.
func (g *Gateway) ClearSessionOnly(ctx context.Context) {
	for _, blob := range []string{BlobAuth, BlobSessionUI} {
		err := g.blobs.Delete(ctx, g.Key(blob))
		g.metrics.RecordBlobDelete(blob, err)
		if err != nil {
			logger.Warn("Failed to delete %s blob: %v", blob, err)
		}
	}
}

func (g *Gateway) write(ctx context.Context, blob string, v any) {
	frame, err := encodeFrame(v, g.opts.Codec, g.opts.Compression)
	if err == nil {
		err = g.blobs.Put(ctx, g.Key(blob), frame)
	}
	g.metrics.RecordBlobWrite(blob, len(frame), err)
	if err != nil {
		logger.Warn("Failed to save %s blob: %v", blob, err)
		return
	}
	logger.Debug("Saved %s blob (%d bytes, %s/%s)", blob, len(frame), g.opts.Codec, g.opts.Compression)
}
