//go:build e2e

// Package e2e provides end-to-end browser tests for the jobsearch web UI.
// The binary is built from ./app, seeded through the CLI and started with "serve".
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

const (
	baseURL    = "http://127.0.0.1:18080"
	testBinary = "/tmp/jobsearch-e2e"
	testDBPath = "/tmp/jobsearch-e2e.db"
)

var (
	pw        *playwright.Playwright
	serverCmd *exec.Cmd
)

func TestMain(m *testing.M) {
	// clean old test data
	_ = os.Remove(testDBPath)

	ctx := context.Background()
	build := exec.CommandContext(ctx, "go", "build", "-o", testBinary, "./app")
	build.Dir = ".."
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	if err := seedJobs(ctx); err != nil {
		fmt.Printf("failed to seed jobs: %v\n", err)
		os.Exit(1)
	}

	serverCmd = exec.CommandContext(ctx, testBinary, "--db="+testDBPath, "--log.enabled",
		"serve", "--listen=127.0.0.1:18080")
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	if err := waitForServer(baseURL+"/", 30*time.Second); err != nil {
		fmt.Printf("server not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	var err error
	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	code := m.Run()

	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	_ = os.Remove(testDBPath)
	_ = os.Remove(testBinary)

	os.Exit(code)
}

// seedJobs adds initial records with the CLI, the same way a user would
func seedJobs(ctx context.Context) error {
	seed := [][]string{
		{"Backend Engineer", "Go services at Acme", "01-03-2024"},
		{"Data Analyst", "Dashboards & <reports>", "15-02-2024"},
	}
	for _, s := range seed {
		cmd := exec.CommandContext(ctx, testBinary, "--db="+testDBPath, "add", s[0], s[1], s[2])
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("add %q failed: %s: %w", s[0], out, err)
		}
	}
	return nil
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready after %v", timeout)
		default:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody) // #nosec G107 - test url
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func newPage(t *testing.T) playwright.Page {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"
	slowMo := 0.0
	if !headless {
		slowMo = 50 // 50ms slowdown for UI mode
	}
	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = brow.Close() })

	ctx, err := brow.NewContext(playwright.BrowserNewContextOptions{AcceptDownloads: playwright.Bool(true)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)
	return page
}

// navigateToList opens the job list and waits for the table
func navigateToList(t *testing.T, page playwright.Page) {
	t.Helper()
	_, err := page.Goto(baseURL)
	require.NoError(t, err)
	waitVisible(t, page.Locator("table"))
}

func waitVisible(t *testing.T, loc playwright.Locator) {
	t.Helper()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err)
}

// rowByTitle locates the table row holding the given title
func rowByTitle(page playwright.Page, title string) playwright.Locator {
	return page.Locator("tbody tr", playwright.PageLocatorOptions{HasText: title})
}
