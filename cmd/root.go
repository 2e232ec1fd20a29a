/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "exposure-reporter",
	Short: "Report the public network access settings of Azure resources",
	Long: `exposure-reporter inspects storage accounts, key vaults, function apps and
Redis caches in one subscription through the Azure CLI and reports how each
one exposes itself to the network.

The report is printed or emailed through SendGrid. Additional resource kinds
and field paths can be declared in the config file.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.exposure-reporter.yaml or ./.exposure-reporter.yaml)")
	rootCmd.PersistentFlags().StringP("verbosity", "v", "info", "Log level (trace, debug, info, warn, error)")
	viper.BindPFlag("verbosity", rootCmd.PersistentFlags().Lookup("verbosity"))
	rootCmd.PersistentFlags().Bool("structured-logs", false, "Write logs as JSON")
	viper.BindPFlag("structured-logs", rootCmd.PersistentFlags().Lookup("structured-logs"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".exposure-reporter")
	}

	viper.SetEnvPrefix("EXPOSURE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}
