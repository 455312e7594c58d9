package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opslift/upgctl/cmd/version"
)

const (
	defaultLogLevel     = "info"
	defaultOutputFormat = "stdout"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:               "upgctl",
	Short:             "RDS engine upgrades made easy",
	Long:              `upgctl is a cli application that orchestrates in-place version upgrades of RDS PostgreSQL instances`,
	PersistentPreRunE: setupLogging,
	TraverseChildren:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(&logLevel, "verbosity", "v", defaultLogLevel, "Log level (debug, info, warn, error, fatal, panic")
	RootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", defaultOutputFormat, "Output format(stdout, json)")
	RootCmd.AddCommand(version.BaseCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".upgctl" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".upgctl")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stdout)
	if outputFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{})
	}

	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}
