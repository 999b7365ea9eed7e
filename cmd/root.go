package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jshufro/abi-gen/internal/config"
	"github.com/jshufro/abi-gen/internal/generate"
	"github.com/jshufro/abi-gen/internal/logger"
	"github.com/jshufro/abi-gen/internal/typemap"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const example = `  abi-gen --abis 'src/artifacts/**/*.json' --out 'src/contracts/generated/' \
    --partials 'src/templates/partials/**/*.tmpl' --template 'src/templates/contract.tmpl'`

// NewRootCommand builds the abi-gen command with its flags
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "abi-gen",
		Short:         "Generate typed contract bindings from ABI files and templates",
		Example:       example,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	f := cmd.Flags()
	f.SetNormalizeFunc(normalizeFlagName)
	f.String("abis", "", "Glob pattern to search for ABI JSON files")
	f.StringP("output", "o", "", "Folder where to put the output files (alias --out)")
	f.String("partials", "", "Glob pattern for the partial template files")
	f.String("template", "", "Path for the main template file that will be used to generate each contract")
	f.String("backend", string(typemap.DefaultBackend),
		fmt.Sprintf("The backing Ethereum library your app uses, '%s' or '%s'. Ethers auto-converts small ints to numbers whereas Web3 doesn't", typemap.Web3, typemap.Ethers))
	f.Uint64("network-id", config.DefaultNetworkID, "ID of the network where contract ABIs are nested in artifacts")
	f.String("extension", config.DefaultExtension, "Extension of the generated files")
	f.Bool("force", false, "Regenerate outputs even if they are newer than their ABI file")
	f.Bool("watch", false, "Keep running and regenerate when ABI files or templates change")
	f.String("config", "", "Optional config file (yaml, toml or json) with the same keys as the flags")
	f.CountP("verbose", "v", "Increase log verbosity")
	f.BoolP("quiet", "q", false, "Only log warnings and errors")
	f.Bool("log-json", false, "Log as JSON")

	return cmd
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "out" {
		name = "output"
	}
	return pflag.NormalizedName(name)
}

func run(cmd *cobra.Command, _ []string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	v, err := config.New(configFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "failed to bind flags")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Verbosity(), cfg.LogJSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := generate.New(cfg, logger.ComponentLogger("abi-gen"))
	if err != nil {
		return err
	}

	report, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	logger.Logger.Debugw("Run complete", "created", len(report.Created), "skipped", len(report.Skipped))

	if cfg.Watch {
		return gen.Watch(ctx)
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
