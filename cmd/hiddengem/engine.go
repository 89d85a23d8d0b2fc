package main

import (
	"github.com/hiddengem/hiddengem/catalog"
	"github.com/hiddengem/hiddengem/config"
	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/media"
	"github.com/hiddengem/hiddengem/metrics"
	"github.com/hiddengem/hiddengem/provider"
	"github.com/hiddengem/hiddengem/provider/gamesdb"
	"github.com/hiddengem/hiddengem/provider/igdb"
	"github.com/hiddengem/hiddengem/provider/rawg"
)

// engine bundles the media stack shared by serve and warm.
type engine struct {
	catalog   *catalog.Catalog
	store     *media.Store
	inspector *media.Inspector
	resolver  *media.Resolver
	policy    media.Policy
}

// buildEngine loads the catalog and wires the store, rate limiter and
// provider chain from configuration. Providers without credentials are
// left out of the chain.
func buildEngine(cfg *config.Config) (*engine, error) {
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	metrics.SetCatalogSize(cat.Len(), len(cat.Manufacturers()))

	store, err := media.NewStore(cfg.MediaRoot)
	if err != nil {
		return nil, err
	}
	inspector := media.NewInspector(store)

	httpClient := provider.NewHTTPClient(cfg.ProviderTimeout())
	limits := make(map[string]media.ProviderLimit)
	var providers []provider.Client

	if cfg.Providers.RAWG.APIKey != "" {
		providers = append(providers, rawg.NewClient(cfg.Providers.RAWG.APIKey, httpClient))
		limits["rawg"] = media.ProviderLimit{
			MinInterval: cfg.Providers.RAWG.MinInterval(),
			DailyLimit:  cfg.Providers.RAWG.DailyLimit,
		}
	}
	if cfg.Providers.TheGamesDB.APIKey != "" {
		providers = append(providers, gamesdb.NewClient(cfg.Providers.TheGamesDB.APIKey, httpClient))
		limits["gamesdb"] = media.ProviderLimit{
			MinInterval: cfg.Providers.TheGamesDB.MinInterval(),
			DailyLimit:  cfg.Providers.TheGamesDB.DailyLimit,
		}
	}
	if cfg.Providers.IGDB.ClientID != "" && cfg.Providers.IGDB.ClientSecret != "" {
		client, err := igdb.NewClient(cfg.Providers.IGDB.ClientID, cfg.Providers.IGDB.ClientSecret)
		if err != nil {
			logging.Warn("igdb disabled", "error", err)
		} else {
			providers = append(providers, client)
			limits["igdb"] = media.ProviderLimit{
				MinInterval: cfg.Providers.IGDB.MinInterval(),
				DailyLimit:  cfg.Providers.IGDB.DailyLimit,
			}
		}
	}
	if len(providers) == 0 {
		logging.Warn("no provider credentials configured, serving cached media only")
	}

	resolver := media.NewResolver(store, inspector, media.NewRateLimiter(limits), providers)

	return &engine{
		catalog:   cat,
		store:     store,
		inspector: inspector,
		resolver:  resolver,
		policy:    media.DefaultPolicy().WithScreenshots(cfg.ScreenshotCount()),
	}, nil
}
