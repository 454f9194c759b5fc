package core

import (
	"go.uber.org/goleak"
	"testing"
	"time"
)

func Test_CorrelationResolve(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewCorrelation(time.Minute)
	defer c.Close()

	c.Track(3, "n2", 42)
	res, ok := c.Resolve(3)
	if !ok {
		t.Fatalf("identifier not tracked")
	}
	if res.Peer != "n2" || res.Value != 42 {
		t.Errorf("wrong target %#v", res)
	}

	if _, ok := c.Resolve(4); ok {
		t.Errorf("resolved identifier never tracked")
	}
}

func Test_CorrelationExpires(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := NewCorrelation(50 * time.Millisecond)
	defer c.Close()

	c.Track(1, "n2", 1)
	time.Sleep(300 * time.Millisecond)
	if _, ok := c.Resolve(1); ok {
		t.Errorf("identifier still tracked after ttl")
	}
}
