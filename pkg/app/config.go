package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openv2x/openv2x/pkg/log"
)

const configFlagName = "config"

var cfgFile string

// addConfigFlag registers the --config flag and arranges for the named
// configuration file to be loaded into viper before the command runs.
// Flag values take precedence over file values, file values over defaults.
func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile,
		"Read configuration from the specified FILE (YAML, JSON, or TOML).")

	viper.AutomaticEnv()
	viper.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(basename), "-", "_"))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(filepath.Join(home, "."+basename))
			}
			viper.AddConfigPath(filepath.Join("/etc", basename))
			viper.SetConfigName(basename)
		}

		if err := viper.ReadInConfig(); err != nil {
			// A missing default file is fine, an unreadable explicit
			// one is not.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
				fmt.Fprintf(os.Stderr, "error reading configuration file %s: %v\n", viper.ConfigFileUsed(), err)
				os.Exit(1)
			}
			return
		}

		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, restart to apply", "file", e.Name)
		})
	})
}
