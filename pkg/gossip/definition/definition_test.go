package definition

import (
	"bytes"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func Test_ReplicaAddIdempotent(t *testing.T) {
	store := NewInMemoryReplica()
	if values := store.Values(); values == nil || len(values) != 0 {
		t.Errorf("expected empty non-nil values, found %#v", values)
	}

	if !store.Add(3) {
		t.Errorf("first add must report new value")
	}
	if store.Add(3) {
		t.Errorf("second add must report duplicate")
	}
	store.Add(-1)
	store.Add(10)

	if !reflect.DeepEqual(store.Values(), []int64{-1, 3, 10}) {
		t.Errorf("expected sorted values, found %v", store.Values())
	}
	if store.Len() != 3 || !store.Contains(10) || store.Contains(4) {
		t.Errorf("wrong store content")
	}
}

func Test_ReplicaConcurrentAdd(t *testing.T) {
	store := NewInMemoryReplica()
	var group sync.WaitGroup
	for i := 0; i < 10; i++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for v := int64(0); v < 100; v++ {
				store.Add(v)
			}
		}()
	}
	group.Wait()

	if store.Len() != 100 {
		t.Errorf("expected 100 values, found %d", store.Len())
	}
}

func Test_DefaultConfigurationValid(t *testing.T) {
	if err := types.ValidateConfiguration(DefaultConfiguration()); err != nil {
		t.Errorf("default configuration not valid. %v", err)
	}
}

func Test_LoggerLevel(t *testing.T) {
	var out bytes.Buffer
	log := NewLogger("WARN", &out)
	log.Info("hidden")
	log.Warn("visible", "key", "value")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("info written with warn level")
	}
	if !strings.Contains(out.String(), "visible") || !strings.Contains(out.String(), "key=value") {
		t.Errorf("warn not written, found %q", out.String())
	}

	out.Reset()
	NewLogger("unknown", &out).Info("fallback")
	if !strings.Contains(out.String(), "fallback") {
		t.Errorf("unknown level must fall back to info")
	}
}
