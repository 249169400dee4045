package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/fivetwenty-io/paybill/pkg/ppclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const userAgent = "paybill-cli"

// Config represents the CLI configuration.
type Config struct {
	ClientID    string `json:"client_id,omitempty"   yaml:"client_id,omitempty"`
	Secret      string `json:"secret,omitempty"      yaml:"secret,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	BaseURL     string `json:"base_url,omitempty"    yaml:"base_url,omitempty"`
	Output      string `json:"output"                yaml:"output"`
	CacheType   string `json:"cache_type,omitempty"  yaml:"cache_type,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
}

// configKeys maps each settable key to the field it writes.
var configKeys = map[string]func(*Config, string){
	"client_id":   func(c *Config, v string) { c.ClientID = v },
	"secret":      func(c *Config, v string) { c.Secret = v },
	"environment": func(c *Config, v string) { c.Environment = strings.ToLower(v) },
	"base_url":    func(c *Config, v string) { c.BaseURL = v },
	"output":      func(c *Config, v string) { c.Output = v },
	"cache_type":  func(c *Config, v string) { c.CacheType = v },
	"nats_url":    func(c *Config, v string) { c.NATSURL = v },
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the credentials and settings used by the paybill CLI",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with the secret masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Secret != "" {
				config.Secret = constants.MaskedSecret
			}

			return render(cmd, config, []string{"Property", "Value"}, func(table *tablewriter.Table) {
				for _, row := range configRows(config) {
					_ = table.Append(row)
				}
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save it to the config file.

Keys: client_id, secret, environment, base_url, output, cache_type, nats_url.
When the key is secret and no value is given, the secret is read from the terminal.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			setter, ok := configKeys[key]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				var err error

				value, err = promptValue(cmd, key)
				if err != nil {
					return err
				}
			}

			config := loadConfig()
			setter(config, value)

			err := saveConfigStruct(config)
			if err != nil {
				return err
			}

			shown := value
			if key == "secret" {
				shown = constants.MaskedSecret
			}

			result := map[string]string{"action": "set", "key": key, "value": shown}

			return render(cmd, result, []string{"Property", "Value"}, func(table *tablewriter.Table) {
				_ = table.Append([]string{"Action", "set"})
				_ = table.Append([]string{"Key", key})
				_ = table.Append([]string{"Value", shown})
			})
		},
	}
}

func configRows(config *Config) [][]string {
	values := map[string]string{
		"client_id":   config.ClientID,
		"secret":      config.Secret,
		"environment": config.Environment,
		"base_url":    config.BaseURL,
		"output":      config.Output,
		"cache_type":  config.CacheType,
		"nats_url":    config.NATSURL,
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, formatValue(values[key])})
	}

	return rows
}

func loadConfig() *Config {
	output := viper.GetString("output")
	if output == "" {
		output = constants.FormatTable
	}

	return &Config{
		ClientID:    viper.GetString("client_id"),
		Secret:      viper.GetString("secret"),
		Environment: viper.GetString("environment"),
		BaseURL:     viper.GetString("base_url"),
		Output:      output,
		CacheType:   viper.GetString("cache_type"),
		NATSURL:     viper.GetString("nats_url"),
	}
}

// configFile returns the file the configuration is read from and saved to.
func configFile() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	if file := viper.GetString("config"); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func saveConfigStruct(config *Config) error {
	file, err := configFile()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(file), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(file, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	for key, value := range map[string]string{
		"client_id":   config.ClientID,
		"secret":      config.Secret,
		"environment": config.Environment,
		"base_url":    config.BaseURL,
		"output":      config.Output,
		"cache_type":  config.CacheType,
		"nats_url":    config.NATSURL,
	} {
		viper.Set(key, value)
	}

	return nil
}

// clientConfig converts the CLI configuration into an SDK configuration.
func clientConfig(config *Config) *paybill.Config {
	clientConfig := &paybill.Config{
		ClientID:    config.ClientID,
		Secret:      config.Secret,
		Environment: config.Environment,
		BaseURL:     config.BaseURL,
		UserAgent:   userAgent,
	}

	switch paybill.CacheType(config.CacheType) {
	case paybill.CacheTypeNone:
		clientConfig.KeepCache = paybill.Bool(false)
	case paybill.CacheTypeNATS:
		clientConfig.Cache = paybill.NewCacheBuilder().
			WithType(paybill.CacheTypeNATS).
			WithNATSConfig(&paybill.NATSKVConfig{URL: config.NATSURL}).
			Config()
	case paybill.CacheTypeMemory, "":
	default:
		clientConfig.Cache = &paybill.CacheConfig{Type: paybill.CacheType(config.CacheType)}
	}

	if viper.GetBool("verbose") {
		clientConfig.Logger = newLogger(os.Stderr)
		clientConfig.Debug = true
	}

	return clientConfig
}

// newIdentifiedClient builds a client from the CLI configuration and waits
// for its session to become ready.
func newIdentifiedClient(cmd *cobra.Command) (paybill.Client, error) {
	return identifyWith(cmd, loadConfig())
}

// identifyWith prompts for a missing secret and stores it in config.
func identifyWith(cmd *cobra.Command, config *Config) (paybill.Client, error) {
	if config.Secret == "" && config.ClientID != "" {
		secret, err := promptValue(cmd, "secret")
		if err != nil {
			return nil, err
		}

		config.Secret = secret
	}

	ctx := commandContext(cmd)

	client, err := ppclient.New(ctx, clientConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	err = client.Identify(ctx)
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to identify: %w", err)
	}

	return client, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
