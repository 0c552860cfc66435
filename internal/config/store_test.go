package config

import (
	"errors"
	"testing"
)

func TestStoreWatchAndUnsubscribe(t *testing.T) {
	s := NewStore(&Config{AppEnv: "dev"})
	var calls int
	stop := s.Watch(func(newCfg *Config, changed map[string]bool) { calls++ })
	other := 0
	s.Watch(func(newCfg *Config, changed map[string]bool) { other++ })

	s.Update(&Config{AppEnv: "prod"}, map[string]bool{"app.env": true})
	if s.Get().AppEnv != "prod" {
		t.Fatalf("snapshot not swapped")
	}
	stop()
	s.Update(&Config{AppEnv: "test"}, nil)
	if calls != 1 {
		t.Fatalf("unsubscribed watcher called %d times", calls)
	}
	if other != 2 {
		t.Fatalf("remaining watcher called %d times", other)
	}
}

func TestStoreValidatorVeto(t *testing.T) {
	orig := &Config{}
	orig.Log.Level = "info"
	s := NewStore(orig)
	remove := s.AddValidator(func(newCfg *Config, changed map[string]bool) error {
		if newCfg.Log.Level == "loud" {
			return errors.New("unknown level")
		}
		return nil
	})

	bad := cloneConfig(orig)
	bad.Log.Level = "loud"
	if s.UpdateValidated(bad, nil) {
		t.Fatalf("update should be rejected")
	}
	if s.Get() != orig {
		t.Fatalf("snapshot changed after veto")
	}

	remove()
	if !s.UpdateValidated(bad, nil) {
		t.Fatalf("update should pass once validator is removed")
	}
	if orig.Log.Level != "info" {
		t.Fatalf("previous snapshot mutated")
	}
}
