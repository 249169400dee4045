package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// render writes value in the configured output format. fill populates the
// table for the table format.
func render(cmd *cobra.Command, value interface{}, headers []string, fill func(*tablewriter.Table)) error {
	out := cmd.OutOrStdout()

	switch output := viper.GetString("output"); output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(constants.JSONIndentSize)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(out)
		table.Header(toAny(headers)...)
		fill(table)

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownOutput, output)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

func formatValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// promptValue reads a value from the terminal without echo, or a line from
// the command input when it is not a terminal.
func promptValue(cmd *cobra.Command, key string) (string, error) {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", key)

	if cmd.InOrStdin() == os.Stdin {
		fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

		if term.IsTerminal(fd) {
			data, err := term.ReadPassword(fd)

			_, _ = fmt.Fprintln(cmd.ErrOrStderr())

			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", key, err)
			}

			return strings.TrimSpace(string(data)), nil
		}
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	return strings.TrimSpace(line), nil
}

// readFile reads a template or patch file, or standard input for "-".
func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, constants.ErrTemplateFileNeeded
	}

	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}

		return data, nil
	}

	// The path is supplied by the user running the CLI.
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}
