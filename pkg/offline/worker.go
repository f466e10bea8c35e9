package offline

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/pagebridge/internal/errors"
)

// DefaultPrefix is prepended to the fingerprint to name a cache.
const DefaultPrefix = "app-"

// DefaultConcurrency bounds parallel asset fetches during Install.
const DefaultConcurrency = 8

// Observer receives cache lifecycle notifications.
type Observer interface {
	Installed(cache string, assets int, elapsed time.Duration)
	Activated(cache string, deleted int)
	Served(hit bool)
}

// Worker owns one cache generation named after a build fingerprint.
type Worker struct {
	Fingerprint string
	// Prefix defaults to DefaultPrefix.
	Prefix string
	// Assets are request URLs, relative ("/app.js") or absolute.
	Assets  []string
	Storage Storage
	Fetcher Fetcher

	// Concurrency defaults to DefaultConcurrency.
	Concurrency int
	Logger      *slog.Logger
	Observer    Observer
}

// CacheName returns Prefix + Fingerprint.
func (w *Worker) CacheName() string {
	prefix := w.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + w.Fingerprint
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default().With("component", "offline")
	}
	return w.Logger
}

// Install precaches every asset into the current generation. All assets
// are fetched before anything is stored: a single fetch failure fails the
// install and leaves storage untouched. If storing fails part way, a
// generation created by this install is deleted; one that already existed
// is kept.
func (w *Worker) Install(ctx context.Context) error {
	start := time.Now()
	name := w.CacheName()
	log := w.logger().With("cache", name)
	log.Info("installing app worker", "fingerprint", w.Fingerprint, "assets", len(w.Assets))

	responses := make([]*Response, len(w.Assets))
	g, gctx := errgroup.WithContext(ctx)
	limit := w.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, u := range w.Assets {
		g.Go(func() error {
			resp, err := w.Fetcher.Fetch(gctx, u)
			if err != nil {
				return errors.New("E100").WithDetailf("fetch %s failed.", u).Wrap(err)
			}
			if resp.URL == "" {
				resp.URL = u
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("install failed", "error", err)
		return err
	}

	existed, err := w.exists(ctx, name)
	if err != nil {
		log.Warn("install failed", "error", err)
		return errors.New("E100").WithDetail("The existing cache generations could not be listed.").Wrap(err)
	}
	if err := w.populate(ctx, name, responses); err != nil {
		// Only a generation created by this install is dropped.
		if !existed {
			if derr := w.Storage.Delete(context.WithoutCancel(ctx), name); derr != nil {
				log.Error("cannot drop partial cache", "error", derr)
			}
		}
		log.Warn("install failed", "error", err)
		return errors.New("E100").WithDetail("The cache generation could not be stored.").Wrap(err)
	}

	elapsed := time.Since(start)
	if w.Observer != nil {
		w.Observer.Installed(name, len(responses), elapsed)
	}
	log.Info("app worker installed", "duration", elapsed)
	return nil
}

func (w *Worker) exists(ctx context.Context, name string) (bool, error) {
	keys, err := w.Storage.Keys(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(keys, name), nil
}

func (w *Worker) populate(ctx context.Context, name string, responses []*Response) error {
	cache, err := w.Storage.Open(ctx, name)
	if err != nil {
		return err
	}
	for _, resp := range responses {
		if err := cache.Put(ctx, resp); err != nil {
			return err
		}
	}
	return nil
}

// Activate deletes every cache whose name differs from CacheName.
func (w *Worker) Activate(ctx context.Context) error {
	name := w.CacheName()
	keys, err := w.Storage.Keys(ctx)
	if err != nil {
		return errors.New("E101").Wrap(err)
	}

	deleted := 0
	for _, k := range keys {
		if k == name {
			continue
		}
		if err := w.Storage.Delete(ctx, k); err != nil {
			return errors.New("E101").WithDetailf("delete %s failed.", k).Wrap(err)
		}
		deleted++
	}

	if w.Observer != nil {
		w.Observer.Activated(name, deleted)
	}
	w.logger().Info("app worker activated", "cache", name, "deleted", deleted)
	return nil
}

// Fetch answers from the current generation and falls back to the
// network on a miss. Network responses are not written back.
func (w *Worker) Fetch(ctx context.Context, url string) (*Response, error) {
	cache, err := w.Storage.Open(ctx, w.CacheName())
	if err != nil {
		return nil, err
	}

	resp, ok, err := cache.Match(ctx, url)
	if err != nil {
		w.logger().Warn("cache lookup failed", "url", url, "error", err)
	}
	if ok {
		if w.Observer != nil {
			w.Observer.Served(true)
		}
		return resp, nil
	}

	if w.Observer != nil {
		w.Observer.Served(false)
	}
	if w.Fetcher == nil {
		return nil, errors.New("E102").WithDetailf("%s is not cached.", url)
	}
	resp, err = w.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, errors.New("E102").WithDetailf("%s is not cached and the network fetch failed.", url).Wrap(err)
	}
	return resp, nil
}
