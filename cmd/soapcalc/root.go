package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	applog "lathera/internal/log"
	"lathera/internal/oils"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v       *viper.Viper
	library *oils.Library
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:   "soapcalc",
		Short: "Lye, water and fragrance calculator for cold and hot process soap.",
		Long: `soapcalc works out how much lye, water and fragrance a batch of oils needs
and predicts the finished bar's qualities.

Settings can come from flags, a YAML config file or SOAPCALC_* environment
variables, in that order of precedence.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.soapcalc.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().String("library", "", "oil library YAML to use instead of the built-in one")

	root.AddCommand(newCalcCmd(a), newOilsCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command, cfgFile string) error {
	v := a.v
	v.SetEnvPrefix("SOAPCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".soapcalc")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := applog.SetLevel(v.GetString("log-level")); err != nil {
		return err
	}
	applog.SetOutput(cmd.ErrOrStderr())
	applog.Debug(cmd.Context(), "configuration loaded", "config", v.ConfigFileUsed())

	lib, err := loadLibrary(v.GetString("library"))
	if err != nil {
		return err
	}
	a.library = lib
	return nil
}

func loadLibrary(path string) (*oils.Library, error) {
	if strings.TrimSpace(path) == "" {
		return oils.Default()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	defer file.Close()
	lib, err := oils.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	return lib, nil
}
