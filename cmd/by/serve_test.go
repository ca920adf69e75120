package main

import (
	"strings"
	"testing"

	"github.com/zulandar/bugyard/internal/config"
	"github.com/zulandar/bugyard/internal/notify"
)

func TestServeCmd_Help(t *testing.T) {
	out, err := run(t, "", "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	for _, want := range []string{"--config", "--port", "bugyard.yaml"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q, got: %s", want, out)
		}
	}
}

func TestBuildNotifier_NoneConfigured(t *testing.T) {
	n, err := buildNotifier(config.NotifyConfig{MinPriority: "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(notify.Nop); !ok {
		t.Errorf("notifier = %T, want notify.Nop", n)
	}
}

func TestBuildNotifier_BothChannels(t *testing.T) {
	n, err := buildNotifier(config.NotifyConfig{
		MinPriority: "critical",
		Slack:       config.ChannelConfig{Token: "xoxb-test", Channel: "C1"},
		Discord:     config.ChannelConfig{Token: "abc", Channel: "123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := n.(notify.PriorityFilter)
	if !ok {
		t.Fatalf("notifier = %T, want notify.PriorityFilter", n)
	}
	if f.MinPriority != "critical" {
		t.Errorf("MinPriority = %q, want critical", f.MinPriority)
	}
	targets, ok := f.Next.(notify.Multi)
	if !ok || len(targets) != 2 {
		t.Errorf("Next = %#v, want Multi with 2 targets", f.Next)
	}
}
