package main

import (
	"bytes"
	"context"
	"github.com/jabolina/go-gossip/configs"
	"io"
	"strings"
	"testing"
	"time"
)

func setEnv(t *testing.T) {
	t.Setenv(configs.EnvConfigPath, "")
	t.Setenv(configs.EnvLogLevel, "ERROR")
	t.Setenv(configs.EnvMetricsAddress, "")
}

func Test_RunFinishesWithInput(t *testing.T) {
	setEnv(t)
	input := `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}
{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":2,"message":5}}
{"src":"c1","dest":"n1","body":{"type":"read","msg_id":3}}
`
	var out bytes.Buffer
	if code := run(context.TODO(), strings.NewReader(input), &out); code != 0 {
		t.Fatalf("expected exit 0, found %d", code)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, found %q", out.String())
	}
	expected := `{"src":"n1","dest":"c1","body":{"msg_id":2,"in_reply_to":3,"type":"read_ok","messages":[5]}}`
	if lines[2] != expected {
		t.Errorf("expected %s, found %s", expected, lines[2])
	}
}

func Test_RunIgnoresBeforeInit(t *testing.T) {
	setEnv(t)
	input := `{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":1,"echo":"x"}}`

	var out bytes.Buffer
	if code := run(context.TODO(), strings.NewReader(input), &out); code != 0 {
		t.Fatalf("expected exit 0, found %d", code)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, found %q", out.String())
	}
}

func Test_RunFailsOnMalformed(t *testing.T) {
	setEnv(t)
	var out bytes.Buffer
	if code := run(context.TODO(), strings.NewReader(`{"src":"c1","dest":"n1","body":{"type":"nope"}}`), &out); code != 1 {
		t.Errorf("expected exit 1, found %d", code)
	}
}

func Test_RunFailsOnConfiguration(t *testing.T) {
	setEnv(t)
	t.Setenv(configs.EnvLogLevel, "loud")
	var out bytes.Buffer
	if code := run(context.TODO(), strings.NewReader(""), &out); code != 2 {
		t.Errorf("expected exit 2, found %d", code)
	}
}

func Test_RunInterruptedExitsCleanly(t *testing.T) {
	setEnv(t)
	in, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.TODO())
	time.AfterFunc(100*time.Millisecond, cancel)

	var out bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, in, &out)
	}()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("expected exit 0 when interrupted, found %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after interruption")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, found %q", out.String())
	}
}
