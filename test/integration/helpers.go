//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	ClientID    string
	Secret      string
	Environment string
	BinaryPath  string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	environment := os.Getenv("PAYBILL_ENVIRONMENT")
	if environment == "" {
		environment = "sandbox"
	}

	return &TestConfig{
		ClientID:    os.Getenv("PAYBILL_CLIENT_ID"),
		Secret:      os.Getenv("PAYBILL_SECRET"),
		Environment: environment,
		BinaryPath:  getBinaryPath(),
		Verbose:     os.Getenv("PAYBILL_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the paybill binary
func getBinaryPath() string {
	if path := os.Getenv("PAYBILL_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../paybill",
		"./paybill",
		"../paybill",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "paybill"
}

// SkipIfMissingCredentials skips the test when no sandbox credentials are set
func (config *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	if config.ClientID == "" || config.Secret == "" {
		t.Skip("PAYBILL_CLIENT_ID or PAYBILL_SECRET not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test when the CLI has not been built
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("paybill binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the paybill CLI with an isolated home directory
type CommandRunner struct {
	config *TestConfig
	home   string
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		home:   t.TempDir(),
		t:      t,
	}
}

// Run executes a paybill command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a paybill command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)
	cmd.Env = append(os.Environ(),
		"HOME="+runner.home,
		"PAYBILL_CLIENT_ID="+runner.config.ClientID,
		"PAYBILL_SECRET="+runner.config.Secret,
		"PAYBILL_ENVIRONMENT="+runner.config.Environment,
	)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a paybill command with JSON output and decodes the result
func (runner *CommandRunner) RunJSON(input string, target interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.RunWithInput(input, append(args, "--output", "json")...)
	require.NoError(runner.t, err, "paybill %s failed: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), target), "output is not JSON: %s", stdout)
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// ProductTemplate returns a product document for "products create"
func ProductTemplate(name string) string {
	return fmt.Sprintf(`name: %s
type: SERVICE
category: SOFTWARE
home_url: https://example.com/%s
`, name, name)
}

// PlanTemplate returns a plan document with a trial and a monthly regular cycle
func PlanTemplate(productID, name string) string {
	return fmt.Sprintf(`product_id: %s
name: %s
status: ACTIVE
billing_cycles:
  - tenure_type: TRIAL
    sequence: 1
    total_cycles: 1
    frequency: {interval_unit: MONTH, interval_count: 1}
  - tenure_type: REGULAR
    sequence: 2
    total_cycles: 12
    frequency: {interval_unit: MONTH, interval_count: 1}
    pricing_scheme:
      fixed_price: {currency_code: USD, value: "10.00"}
payment_preferences:
  auto_bill_outstanding: true
  setup_fee_failure_action: CONTINUE
  payment_failure_threshold: 3
`, productID, name)
}

// AssertYAMLOutput verifies command output looks like YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
