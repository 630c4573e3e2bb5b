package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/testutils"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestSmoke_Startup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	// 1. Start Infrastructure
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	host, port := suite.HostPort()

	// 2. Configure App to use Infrastructure
	cfg := &config.Config{
		ServerPort:                 freePort(t),
		APIKey:                     "smoke",
		LLMProvider:                config.ProviderOpenAI,
		OpenAIAPIKey:               "unused",
		OpenAIModel:                "gpt-4o-mini",
		ModelTimeoutSeconds:        5,
		FetchTimeoutSeconds:        5,
		MaxDocumentSizeMB:          1,
		QueryLogPath:               filepath.Join(t.TempDir(), "query.log"),
		EnableRunLog:               true,
		DBHost:                     host,
		DBPort:                     port,
		DBUser:                     "test",
		DBPass:                     "test",
		DBName:                     "docqa_test",
		MigrationPath:              testutils.MigrationPath(),
		BootstrapRetryAttempts:     5,
		BootstrapRetryDelaySeconds: 1,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 3. Run App in Background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, logger)
	}()

	// 4. Wait for Health Check
	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.ServerPort)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 20*time.Second, 500*time.Millisecond)

	// 5. History endpoints are mounted with the run log enabled
	req, err := http.NewRequest(http.MethodGet, base+"/stats", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "smoke")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
