package config

import (
	agollo "github.com/apolloconfig/agollo/v4"
	apconf "github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
)

// overrideFromApollo starts Apollo client and overrides config values if present.
// Returns a closer to stop the Apollo client.
func overrideFromApollo(cfg *Config, store *Store) (func(), error) {
	if cfg.Apollo.Addrs == "" || cfg.Apollo.AppID == "" {
		configLogger.Warn("apollo: missing APOLLO_ADDRS or APOLLO_APP_ID; skip")
		return nil, nil
	}

	appCfg := apolloAppConfig(cfg)
	ns := appCfg.NamespaceName

	client, err := agollo.StartWithConfig(func() (*apconf.AppConfig, error) { return appCfg, nil })
	if err != nil {
		return nil, err
	}

	next := cloneConfig(cfg)
	applyApolloOverrides(client.GetConfigCache(ns), next)
	_ = store.UpdateValidated(next, map[string]bool{"apollo.init": true})

	client.AddChangeListener(&changeListener{ns: ns, client: client, store: store})

	// agollo v4 has no public Stop
	return func() {}, nil
}

// apolloAppConfig maps the Apollo settings onto agollo's client config.
func apolloAppConfig(cfg *Config) *apconf.AppConfig {
	ns := cfg.Apollo.Namespace
	if ns == "" {
		ns = "application"
	}
	return &apconf.AppConfig{
		AppID:         cfg.Apollo.AppID,
		Cluster:       cfg.Apollo.Cluster,
		NamespaceName: ns,
		IP:            cfg.Apollo.Addrs, // comma separated
		Secret:        cfg.Apollo.AccessKey,
	}
}

// configCache is the subset of agollo's cache the overrides read.
type configCache interface {
	Get(key string) (interface{}, error)
}

// applyApolloOverrides copies the remotely managed keys onto cfg. Only
// logging settings take effect without a restart; the backend URLs are
// picked up by the next process start.
func applyApolloOverrides(cache configCache, cfg *Config) {
	if cache == nil {
		return
	}
	str := func(key string, dst *string) {
		v, err := cache.Get(key)
		if err != nil {
			return
		}
		if s, _ := v.(string); s != "" {
			*dst = s
		}
	}
	str("log.level", &cfg.Log.Level)
	str("log.format", &cfg.Log.Format)
	str("osrm.default_url", &cfg.OSRM.DefaultURL)
	str("owntracks.url", &cfg.OwnTracks.URL)
}

type changeListener struct {
	ns     string
	client agollo.Client
	store  *Store
}

func (c *changeListener) OnChange(e *storage.ChangeEvent) {
	configLogger.Sugar().Infof("apollo change: namespace=%s, changes=%d", e.Namespace, len(e.Changes))
	next := cloneConfig(c.store.Get())
	applyApolloOverrides(c.client.GetConfigCache(c.ns), next)
	changed := map[string]bool{}
	for k := range e.Changes {
		changed[k] = true
	}
	_ = c.store.UpdateValidated(next, changed)
}

func (c *changeListener) OnNewestChange(e *storage.FullChangeEvent) {
	configLogger.Sugar().Debugf("apollo snapshot: namespace=%s, keys=%d", e.Namespace, len(e.Changes))
}
