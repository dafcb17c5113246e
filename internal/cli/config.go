package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/spf13/cobra"
	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/logger"
	"github.com/tessro/cadence/internal/wizard"
)

var configInitInteractive bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing cadence configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including environment overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file with default values. With --interactive,
answer a few questions first.`,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(getConfigPath())
		return nil
	},
}

// configKinds lists the keys config set accepts and their value kinds.
var configKinds = map[string]string{
	"playback.backend":       "string",
	"playback.mpv_path":      "string",
	"playback.socket_path":   "string",
	"playback.tick_interval": "int",
	"playback.volume":        "int",
	"playback.repeat":        "string",
	"lyrics.provider":        "string",
	"lyrics.base_url":        "string",
	"lyrics.timeout":         "int",
	"lyrics.sidecar":         "bool",
	"cache.backend":          "string",
	"cache.path":             "string",
	"cache.redis_url":        "string",
	"cache.ttl":              "int",
	"library.dir":            "string",
	"tui.theme":              "string",
	"tui.mouse":              "bool",
	"log.level":              "string",
	"log.file":               "string",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. The file is left untouched when the value
does not change.

Supported keys:
` + configKeyList() + `
Examples:
  cadence config set playback.volume 60
  cadence config set lyrics.provider local
  cadence config set tui.theme latte`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitInteractive, "interactive", "i", false, "choose settings interactively")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configKeyList() string {
	keys := make([]string, 0, len(configKinds))
	for k := range configKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-24s %s\n", k, configKinds[k])
	}
	return sb.String()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return errors.WithSuggestion(errors.ErrConfigNotFound, "Run 'cadence config init' first")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	before, err := cfg.Hash()
	if err != nil {
		return err
	}
	if err := editorCmd.Run(); err != nil {
		return err
	}

	edited, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to parse edited config: %w", err)
	}
	if err := edited.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	after, err := edited.Hash()
	if err != nil {
		return err
	}
	if before == after {
		fmt.Println("Configuration unchanged")
	} else {
		fmt.Println("Configuration updated")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	defaultCfg := config.Default()
	if configInitInteractive {
		if err := wizard.ConfigureInteractively(defaultCfg); err != nil {
			return err
		}
		if err := defaultCfg.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
		}
	}

	if err := writeConfigFile(configPath, defaultCfg); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Point library.dir at your music: cadence config set library.dir ~/Music")
	fmt.Println("  2. Run 'cadence ui' to start playing")
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	kind, ok := configKinds[key]
	if !ok {
		return fmt.Errorf("unknown key %q. Run 'cadence config set --help' for the list", key)
	}
	typed, err := parseConfigValue(kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	configPath := getConfigPath()
	raw := map[string]interface{}{}
	if data, err := os.ReadFile(configPath); err == nil {
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	before, err := hashstructure.Hash(raw, hashstructure.FormatV2, nil)
	if err != nil {
		return err
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]interface{})
	if !ok {
		sectionMap = map[string]interface{}{}
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	after, err := hashstructure.Hash(raw, hashstructure.FormatV2, nil)
	if err != nil {
		return err
	}

	if before != after {
		if err := validateRaw(raw); err != nil {
			return err
		}
		if err := writeConfigFile(configPath, raw); err != nil {
			return err
		}
	}

	if key == "playback.volume" {
		forgetSavedVolume()
	}

	status := "updated"
	if before == after {
		status = "unchanged"
	}
	if JSONOutput() {
		return printJSON(map[string]string{
			"status": status,
			"key":    key,
			"value":  value,
		})
	}
	if status == "unchanged" {
		fmt.Printf("%s is already %s\n", key, value)
	} else {
		fmt.Printf("Set %s = %s\n", key, value)
	}
	return nil
}

// forgetSavedVolume drops the volume remembered from playback so the newly
// configured one is used next time.
func forgetSavedVolume() {
	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Debug().Err(err).Msg("no store to clear saved volume from")
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.ClearVolume(); err != nil {
		logger.Log.Warn().Err(err).Msg("could not clear saved volume")
	}
}

// parseConfigValue converts value to the TOML type of a config key.
func parseConfigValue(kind, value string) (interface{}, error) {
	switch kind {
	case "int":
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer")
		}
		// toml decodes integers as int64; match it so unchanged values hash equal.
		return int64(i), nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			switch strings.ToLower(value) {
			case "yes", "on":
				return true, nil
			case "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("value must be true or false")
		}
		return b, nil
	default:
		return value, nil
	}
}

// validateRaw checks that raw decodes into a valid Config.
func validateRaw(raw map[string]interface{}) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return err
	}
	c := config.Default()
	if _, err := toml.Decode(buf.String(), c); err != nil {
		return err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}

func writeConfigFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Cadence Configuration")
	_, _ = fmt.Fprintln(f, "# https://github.com/tessro/cadence")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
