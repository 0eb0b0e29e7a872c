package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr: got %q", cfg.Server.Addr)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Fatalf("default top_k: got %d", cfg.Retrieval.TopK)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 20 {
		t.Fatalf("chunking defaults: got %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Pinecone.Index != "medicalchatbot" {
		t.Fatalf("default index: got %q", cfg.Pinecone.Index)
	}
}

func TestLoadPortVariants(t *testing.T) {
	setRequiredEnv(t)

	cases := []struct {
		name string
		port string
		want string
	}{
		{"bare port", "9000", ":9000"},
		{"with colon", ":9000", ":9000"},
		{"host and port", "127.0.0.1:9000", "127.0.0.1:9000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PORT", tc.port)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load err: %v", err)
			}
			if cfg.Server.Addr != tc.want {
				t.Fatalf("addr: got %q want %q", cfg.Server.Addr, tc.want)
			}
		})
	}
}

func TestLoadInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "90 00")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed PORT")
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without SESSION_SECRET")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"api key and model", AIConfig{APIKey: "k", Model: "m"}, true},
		{"ak/sk and model", AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}, true},
		{"missing model", AIConfig{APIKey: "k"}, false},
		{"missing credentials", AIConfig{Model: "m"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Enabled(); got != tc.want {
				t.Fatalf("Enabled: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestRetrievalTopKOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRIEVAL_TOP_K", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Retrieval.TopK != 7 {
		t.Fatalf("top_k: got %d want 7", cfg.Retrieval.TopK)
	}
}

func TestRetrievalTopKRejectsNonPositive(t *testing.T) {
	setRequiredEnv(t)

	for _, value := range []string{"0", "-2"} {
		t.Setenv("RETRIEVAL_TOP_K", value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for RETRIEVAL_TOP_K=%s", value)
		}
	}
}
