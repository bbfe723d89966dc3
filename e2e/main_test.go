//go:build e2e

package e2e

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const (
	adminUser     = "testuser"
	adminPassword = "testpass123"
)

var appURL string

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	// Build from ../cmd/server when run via go test ./e2e/..., or ./cmd/server from the root.
	buildPath := filepath.Join(os.TempDir(), "expense-ledger-e2e")
	pkg := "../cmd/server"
	if _, err := os.Stat(pkg); os.IsNotExist(err) {
		if _, err := os.Stat("cmd/server"); err != nil {
			fmt.Println("Could not find cmd/server to build")
			return 1
		}
		pkg = "./cmd/server"
	}

	output, err := exec.Command("go", "build", "-o", buildPath, pkg).CombinedOutput()
	if err != nil {
		fmt.Printf("Failed to build app: %v\n%s\n", err, output)
		return 1
	}
	defer os.Remove(buildPath)

	dbDir, err := os.MkdirTemp("", "expense-ledger-e2e")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dbDir)

	port := "8081"
	appURL = "http://localhost:" + port

	serverCmd := exec.Command(buildPath)
	serverCmd.Env = append(os.Environ(),
		"PORT="+port,
		"DB_PATH="+filepath.Join(dbDir, "ledger.db"),
		"SECRET_KEY=e2e-secret-key-0123456789",
		"ADMIN_USER="+adminUser,
		"ADMIN_PASSWORD="+adminPassword,
		"LOG_LEVEL=warn",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr

	if err := serverCmd.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return 1
	}
	defer func() {
		if err := serverCmd.Process.Kill(); err != nil {
			fmt.Printf("Failed to kill server: %v\n", err)
		}
	}()

	if !waitReady(appURL + "/login") {
		fmt.Println("Server failed to start or is not reachable")
		return 1
	}

	return m.Run()
}

func waitReady(url string) bool {
	for range 50 {
		time.Sleep(100 * time.Millisecond)
		resp, err := http.Get(url)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
	}
	return false
}
