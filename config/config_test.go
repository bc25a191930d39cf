package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
port: 9090
stagger_delay: 500ms
max_concurrent_fetches: 10

providers:
  - name: OpenAI
    feed_url: https://status.openai.com/history.atom
    poll_interval_seconds: 60
    product: OpenAI API
  - name: Anthropic
    feed_url: https://status.anthropic.com/history.atom
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.StaggerDelay.Duration() != 500*time.Millisecond {
		t.Errorf("StaggerDelay = %v, want 500ms", cfg.StaggerDelay.Duration())
	}
	if cfg.MaxConcurrentFetches != 10 {
		t.Errorf("MaxConcurrentFetches = %d, want 10", cfg.MaxConcurrentFetches)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("Providers = %d, want 2", len(cfg.Providers))
	}

	first := cfg.Providers[0]
	if first.Name != "OpenAI" || first.Product != "OpenAI API" || first.PollIntervalSeconds != 60 {
		t.Errorf("first provider = %+v", first)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
providers:
  - name: OpenAI
    feed_url: https://status.openai.com/history.atom
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
	if cfg.StaggerDelay.Duration() != DefaultStaggerDelay {
		t.Errorf("StaggerDelay = %v, want default %v", cfg.StaggerDelay.Duration(), DefaultStaggerDelay)
	}
	if cfg.MaxConcurrentFetches != DefaultMaxConcurrentFetches {
		t.Errorf("MaxConcurrentFetches = %d, want default %d", cfg.MaxConcurrentFetches, DefaultMaxConcurrentFetches)
	}

	p := cfg.Providers[0]
	if p.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Errorf("PollIntervalSeconds = %d, want default %d", p.PollIntervalSeconds, DefaultPollIntervalSeconds)
	}
	if p.Product != "OpenAI" {
		t.Errorf("Product = %q, want defaulted to name", p.Product)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no providers",
			yaml:    `port: 8085`,
			wantErr: "at least one provider",
		},
		{
			name: "duplicate names",
			yaml: `
providers:
  - name: A
    feed_url: https://a.example.com/feed
  - name: A
    feed_url: https://a.example.com/feed
`,
			wantErr: "duplicate provider name",
		},
		{
			name: "missing name",
			yaml: `
providers:
  - feed_url: https://a.example.com/feed
`,
			wantErr: "name is required",
		},
		{
			name: "missing feed_url",
			yaml: `
providers:
  - name: A
`,
			wantErr: "feed_url is required",
		},
		{
			name: "bad scheme",
			yaml: `
providers:
  - name: A
    feed_url: ftp://a.example.com/feed
`,
			wantErr: "http or https",
		},
		{
			name: "negative interval",
			yaml: `
providers:
  - name: A
    feed_url: https://a.example.com/feed
    poll_interval_seconds: -5
`,
			wantErr: "poll_interval_seconds must be positive",
		},
		{
			name: "bad duration",
			yaml: `
stagger_delay: soon
providers:
  - name: A
    feed_url: https://a.example.com/feed
`,
			wantErr: "invalid duration",
		},
		{
			name: "bad port",
			yaml: `
port: 99999
providers:
  - name: A
    feed_url: https://a.example.com/feed
`,
			wantErr: "port must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvVarExpansion(t *testing.T) {
	t.Setenv("FEED_HOST", "status.example.com")

	cfg, err := Parse([]byte(`
providers:
  - name: A
    feed_url: https://${FEED_HOST}/history.atom
  - name: B
    feed_url: https://${MISSING_HOST:-fallback.example.com}/history.atom
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := cfg.Providers[0].FeedURL; got != "https://status.example.com/history.atom" {
		t.Errorf("FeedURL = %q", got)
	}
	if got := cfg.Providers[1].FeedURL; got != "https://fallback.example.com/history.atom" {
		t.Errorf("FeedURL with default = %q", got)
	}
}

func TestParse_UnsetEnvVarWithoutDefault(t *testing.T) {
	_, err := Parse([]byte(`
providers:
  - name: A
    feed_url: https://${DEFINITELY_NOT_SET_ANYWHERE}/feed
`))
	if err == nil {
		t.Fatal("Parse() error = nil, want unset variable error")
	}
	if !strings.Contains(err.Error(), "is not set") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/feedwatch.yaml"); err == nil {
		t.Fatal("Load() error = nil, want read failure")
	}
}

func TestBuildProviders(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	providers := BuildProviders(cfg)
	if len(providers) != 2 {
		t.Fatalf("BuildProviders() = %d providers, want 2", len(providers))
	}
	if providers[0].PollInterval != 60*time.Second {
		t.Errorf("PollInterval = %v, want 60s", providers[0].PollInterval)
	}
	if providers[1].Product != "Anthropic" {
		t.Errorf("Product = %q, want defaulted to name", providers[1].Product)
	}
}
