// Package cmd is for command line interactions with the rep application
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ARU-life-sciences/rep/config"
	"github.com/ARU-life-sciences/rep/internal/exec"
	"github.com/ARU-life-sciences/rep/internal/workspace"
	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logging.MustGetLogger("rep")

var (
	cfgFile string

	verbose bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "rep",
	Short: `Annotate the repeats of a genome assembly and curate each
repeat family into a FASTA of flanked, oriented loci ready for alignment`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLevel(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./rep.yaml, then $HOME/rep.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	RootCmd.PersistentFlags().StringP("dir", "d", ".", "working directory of the run")
	RootCmd.PersistentFlags().Duration("timeout", 0, "time limit on each external tool, 0 for none")

	viper.BindPFlag("dir", RootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("tools.timeout", RootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig reads in the config file and REP_ environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rep")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	// REP_CURATION_TOP_HITS overrides curation.top-hits
	viper.SetEnvPrefix("REP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Debugf("using config file %s", viper.ConfigFileUsed())
	case errors.As(err, &notFound) && cfgFile == "":
	default:
		log.Fatalf("failed to read config: %v", err)
	}
}

// settings are the validated settings and the run's layout.
func settings() (*config.Config, workspace.Layout, error) {
	c, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, workspace.Layout{}, err
	}
	return c, workspace.New(viper.GetString("dir")), nil
}

// runner runs the external tools as child processes.
func runner(c *config.Config) exec.Runner {
	return exec.Local{Timeout: c.Tools.Timeout}
}
