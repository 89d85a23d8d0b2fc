package media

import (
	"context"
	"strings"
	"sync"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/metrics"
	"github.com/hiddengem/hiddengem/provider"
	"github.com/hiddengem/hiddengem/tracing"
)

// retryCooldown is how long an unsatisfied cache is left alone after a
// resolution attempt. Providers that had nothing for a game rarely grow
// assets within minutes, and the cooldown keeps repeated page loads from
// burning quota on the same misses.
const retryCooldown = 15 * time.Minute

// Resolver runs the fetch side of the media engine: it inspects the cache,
// computes what is missing against the policy and walks the provider chain
// to fill the gaps. Resolutions for the same game are serialized; different
// games proceed concurrently.
type Resolver struct {
	store     *Store
	inspector *Inspector
	limiter   *RateLimiter
	providers []provider.Client

	locks    *csmap.CsMap[string, *sync.Mutex]
	lockInit sync.Mutex

	now func() time.Time
}

// NewResolver builds a resolver over the store with the given provider
// chain. Providers are consulted in slice order.
func NewResolver(store *Store, inspector *Inspector, limiter *RateLimiter, providers []provider.Client) *Resolver {
	return &Resolver{
		store:     store,
		inspector: inspector,
		limiter:   limiter,
		providers: providers,
		locks:     csmap.Create[string, *sync.Mutex](),
		now:       time.Now,
	}
}

// Record assembles the current media state of a game from disk only. No
// provider is contacted.
func (r *Resolver) Record(key GameKey) (MediaRecord, error) {
	assets, meta, err := r.inspector.Assets(key)
	if err != nil {
		return MediaRecord{}, err
	}
	return MediaRecord{
		Title:          key.Title,
		Console:        key.Console,
		Images:         assets,
		Description:    meta.Description,
		Tags:           meta.Tags,
		LastResolvedAt: meta.LastResolvedAt,
	}, nil
}

// deficit tracks what a resolution still has to fetch.
type deficit struct {
	covers      int
	screenshots int
	description bool
}

func (d *deficit) images() int {
	return d.covers + d.screenshots
}

func (d *deficit) done() bool {
	return d.images() == 0 && !d.description
}

// Resolve brings a game's media up to the policy if it can, and returns
// whatever is cached afterwards. A satisfied cache returns immediately.
// Provider failures and exhausted quotas degrade the result, they never
// fail it; only store I/O errors are returned. When forceRefresh is set
// the provider-sourced description is re-fetched even if one is cached.
func (r *Resolver) Resolve(ctx context.Context, key GameKey, policy Policy, forceRefresh bool) (MediaRecord, error) {
	start := r.now()
	defer metrics.RecordResolveDuration(start)

	ctx, span := tracing.StartSpan(ctx, "media.resolve", tracing.WithAttributes(
		attribute.String("game.title", key.Title),
		attribute.String("game.console", key.Console),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	lock := r.lock(key)
	lock.Lock()
	defer lock.Unlock()

	fail := func(err error) (MediaRecord, error) {
		metrics.Resolutions.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)
		return MediaRecord{}, err
	}
	done := func(outcome string) (MediaRecord, error) {
		metrics.Resolutions.WithLabelValues(outcome).Inc()
		tracing.AddSpanAttributes(span, attribute.String("resolve.outcome", outcome))
		tracing.SetSpanOK(span)
		return r.Record(key)
	}

	status, err := r.inspector.Inspect(key, policy)
	if err != nil {
		return fail(err)
	}
	if status.SatisfiesPolicy && !forceRefresh {
		return done("hit")
	}

	meta, err := r.store.Meta(key)
	if err != nil {
		return fail(err)
	}

	// An unsatisfied cache that was just attempted stays unsatisfied;
	// don't hammer providers for the same misses on every request.
	if !forceRefresh && !meta.LastResolvedAt.IsZero() && r.now().Sub(meta.LastResolvedAt) < retryCooldown {
		return done("partial")
	}

	need := deficit{
		covers:      policy.Covers - status.Covers,
		screenshots: policy.Screenshots - status.Screenshots,
		description: !status.HasDescription || (forceRefresh && !meta.DescriptionAdmin),
	}
	if need.covers < 0 {
		need.covers = 0
	}
	if need.screenshots < 0 {
		need.screenshots = 0
	}

	if err := r.walkProviders(ctx, key, &need); err != nil {
		return fail(err)
	}

	if err := r.store.SetLastResolved(key, r.now()); err != nil {
		return fail(err)
	}
	r.inspector.Invalidate(key)

	final, err := r.inspector.Inspect(key, policy)
	if err != nil {
		return fail(err)
	}
	if final.SatisfiesPolicy {
		return done("full")
	}
	return done("partial")
}

// walkProviders fills the deficits from the chain. Each provider is visited
// at most once per resolution; a quota refusal skips to the next provider,
// and context cancellation abandons the walk keeping whatever was saved.
// Only store errors come back non-nil.
func (r *Resolver) walkProviders(ctx context.Context, key GameKey, need *deficit) error {
	for _, p := range r.providers {
		if need.done() || ctx.Err() != nil {
			return nil
		}

		ok, err := r.limiter.Acquire(ctx, p.Name())
		if err != nil {
			logging.Debug("resolution interrupted", "game", key.String(), "provider", p.Name(), "error", err)
			return nil
		}
		if !ok {
			metrics.ProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeQuota).Inc()
			logging.Debug("provider quota exhausted, skipping", "provider", p.Name(), "game", key.String())
			continue
		}

		got := false
		var fetchErr error

		if need.description {
			if text, found := p.SearchDescription(ctx, key.Title, key.Console); found && text != "" {
				if err := r.store.SetDescription(key, text, false); err != nil {
					return err
				}
				need.description = false
				got = true
			}
		}

		if need.images() > 0 {
			images, imgErr := p.FetchImages(ctx, key.Title, key.Console, need.images())
			if imgErr != nil {
				fetchErr = imgErr
				logging.Warn("provider image fetch failed", "provider", p.Name(), "game", key.String(), "error", imgErr)
			}
			for _, img := range images {
				if err := r.saveImage(key, p.Name(), img, need); err != nil {
					return err
				}
			}
			if len(images) > 0 {
				got = true
			}
		}

		if got {
			metrics.ProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeOK).Inc()
		} else if fetchErr != nil || ctx.Err() != nil {
			metrics.ProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeUnavailable).Inc()
		} else {
			metrics.ProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeEmpty).Inc()
		}

		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// saveImage persists one fetched image against the remaining deficit.
// Surplus images are dropped rather than stored. While the cover slot is
// open, the first screenshot-named image is promoted: persisted under a
// cover name so later inspections see it as one.
func (r *Resolver) saveImage(key GameKey, providerName string, img provider.RawImage, need *deficit) error {
	category := Categorize(img.Filename)
	filename := img.Filename

	switch category {
	case CategoryCover:
		if need.covers > 0 {
			need.covers--
		} else if need.screenshots > 0 {
			need.screenshots--
			category = CategoryScreenshot
		} else {
			return nil
		}
	default:
		if need.covers > 0 {
			need.covers--
			category = CategoryCover
			filename = "cover_" + strings.TrimPrefix(filename, "screenshot_")
		} else if need.screenshots > 0 {
			need.screenshots--
		} else {
			return nil
		}
	}

	if _, err := r.store.SaveAsset(key, filename, img.Data, providerName); err != nil {
		return err
	}
	metrics.ImagesDownloaded.WithLabelValues(providerName, string(category)).Inc()
	return nil
}

// Invalidate drops cached inspection state for a key after an out-of-band
// change to its directory.
func (r *Resolver) Invalidate(key GameKey) {
	r.inspector.Invalidate(key)
}

// lock returns the per-game mutex, creating it on first use.
func (r *Resolver) lock(key GameKey) *sync.Mutex {
	dir := key.Dir()
	if mu, ok := r.locks.Load(dir); ok {
		return mu
	}
	r.lockInit.Lock()
	defer r.lockInit.Unlock()
	if mu, ok := r.locks.Load(dir); ok {
		return mu
	}
	mu := &sync.Mutex{}
	r.locks.Store(dir, mu)
	return mu
}
