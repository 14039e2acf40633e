package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jamesseanwright/json-schema-deref-sync/deref"
	"github.com/jamesseanwright/json-schema-deref-sync/internal/cliutil"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// derefFlags contains flags for the deref command
type derefFlags struct {
	format             string
	output             string
	quiet              bool
	strict             bool
	merge              bool
	removeIDs          bool
	registry           string
	root               string
	config             string
	baseDir            string
	watch              bool
	maxRefDepth        int
	maxCachedDocuments int
}

func newDerefCmd() *cobra.Command {
	flags := &derefFlags{}
	cmd := &cobra.Command{
		Use:   "deref [flags] <file|->",
		Short: "Dereference a schema document",
		Long: `Read a JSON or YAML schema (use - for stdin), resolve every $ref and write
the result to stdout or --output.

Relative external references resolve against the input file's directory, or
--base-dir. Settings are also read from a TOML file (--config, or
.jsonderef.toml in the working directory); flags override it.

Examples:
  jsonderef deref schema.json
  jsonderef deref --format yaml -o flat.yaml api/root.yaml
  cat schema.json | jsonderef deref --strict -
  jsonderef deref --registry schemas.db --root ./schemas --watch schemas/root.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeref(cmd, flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", FormatJSON, "output format: json or yaml")
	f.StringVarP(&flags.output, "output", "o", "", "write the document to this file instead of stdout")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not report unresolved references")
	f.BoolVar(&flags.strict, "strict", false, "fail when a reference cannot be resolved")
	f.BoolVar(&flags.merge, "merge-additional-properties", false, "merge sibling keys of $ref nodes into resolved objects")
	f.BoolVar(&flags.removeIDs, "remove-ids", false, "strip $id keys from the output")
	f.StringVar(&flags.registry, "registry", "", "SQLite schema registry serving registry:<name> references")
	f.StringVar(&flags.root, "root", "", "refuse file references outside this directory")
	f.StringVar(&flags.config, "config", "", "TOML settings file (default "+DefaultConfigFile+" if present)")
	f.StringVar(&flags.baseDir, "base-dir", "", "directory relative references resolve against")
	f.BoolVarP(&flags.watch, "watch", "w", false, "re-run whenever the input file changes")
	f.IntVar(&flags.maxRefDepth, "max-ref-depth", 0, fmt.Sprintf("maximum nested reference depth (default %d)", deref.DefaultMaxRefDepth))
	f.IntVar(&flags.maxCachedDocuments, "max-cached-documents", 0, fmt.Sprintf("maximum external documents per run (default %d)", deref.DefaultMaxCachedDocuments))
	return cmd
}

func runDeref(cmd *cobra.Command, flags *derefFlags, input string) error {
	if err := ValidateOutputFormat(flags.format); err != nil {
		return err
	}
	settings, err := resolveSettings(cmd, flags)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	once := func() error {
		return derefOnce(cmd, flags, settings, input, logger)
	}
	if !flags.watch {
		return once()
	}
	if input == StdinFilePath {
		return fmt.Errorf("--watch cannot be used with stdin")
	}
	return watchFile(cmd.Context(), input, once, logger)
}

// resolveSettings merges the config file with explicitly set flags.
func resolveSettings(cmd *cobra.Command, flags *derefFlags) (*fileConfig, error) {
	path, explicit := flags.config, flags.config != ""
	if !explicit {
		path = DefaultConfigFile
	}
	settings, err := loadConfigFile(path, explicit)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("base-dir") {
		settings.BaseDir = flags.baseDir
	}
	if changed("strict") {
		settings.FailOnMissing = flags.strict
	}
	if changed("merge-additional-properties") {
		settings.MergeAdditionalProperties = flags.merge
	}
	if changed("remove-ids") {
		settings.RemoveIDs = flags.removeIDs
	}
	if changed("max-ref-depth") {
		settings.MaxRefDepth = flags.maxRefDepth
	}
	if changed("max-cached-documents") {
		settings.MaxCachedDocuments = flags.maxCachedDocuments
	}
	if changed("root") {
		settings.FileRoot = flags.root
	}
	if changed("registry") {
		settings.Registry = flags.registry
	}
	return settings, nil
}

// derefOptions converts settings into engine options.
func derefOptions(settings *fileConfig, loaders []loader.Loader, baseDir string, logger *slog.Logger) []deref.Option {
	opts := []deref.Option{
		deref.WithLoaders(loaders...),
		deref.WithBaseDir(baseDir),
		deref.WithFailOnMissing(settings.FailOnMissing),
		deref.WithMergeAdditionalProperties(settings.MergeAdditionalProperties),
		deref.WithRemoveIDs(settings.RemoveIDs),
		deref.WithLogger(deref.NewSlogAdapter(logger)),
	}
	if settings.MaxRefDepth != 0 {
		opts = append(opts, deref.WithMaxRefDepth(settings.MaxRefDepth))
	}
	if settings.MaxCachedDocuments != 0 {
		opts = append(opts, deref.WithMaxCachedDocuments(settings.MaxCachedDocuments))
	}
	return opts
}

func derefOnce(cmd *cobra.Command, flags *derefFlags, settings *fileConfig, input string, logger *slog.Logger) error {
	doc, base, err := readDocument(input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if settings.BaseDir != "" {
		base = settings.BaseDir
	}

	var loaders []loader.Loader
	if settings.Registry != "" {
		db, err := loader.OpenRegistry(settings.Registry)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		loaders = loader.Standard(settings.FileRoot, db)
	} else {
		loaders = loader.Standard(settings.FileRoot, nil)
	}

	result, err := deref.DerefWithOptions(doc, derefOptions(settings, loaders, base, logger)...)
	if err != nil {
		return fmt.Errorf("dereferencing %s: %w", input, err)
	}
	logger.Debug("dereferenced schema",
		"input", input,
		"references", result.Stats.References,
		"loads", result.Stats.Loads,
		"cache_hits", result.Stats.CacheHits,
	)

	data, err := encodeDocument(result.Document, flags.format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), flags.output, data); err != nil {
		return err
	}

	if !flags.quiet {
		cliutil.WriteList(cmd.ErrOrStderr(), "Unresolved references", result.Missing)
	}
	return nil
}
