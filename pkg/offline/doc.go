// Package offline manages the versioned asset cache behind the app worker.
//
// A Worker names its cache after a build fingerprint. Install precaches the
// asset list into that generation, Activate deletes every other generation
// and Fetch answers from the cache before falling back to the network:
//
//	w := &offline.Worker{
//		Fingerprint: fp,
//		Assets:      assets.List(resolver, manifest.Sources(), "/"),
//		Storage:     offline.NewMemoryStorage(),
//		Fetcher:     offline.NewHTTPFetcher("https://example.com"),
//	}
//	if err := w.Install(ctx); err != nil {
//		return err
//	}
//	return w.Activate(ctx)
//
// Script renders the browser-side app-worker.js that performs the same
// lifecycle with the Cache Storage API.
package offline
