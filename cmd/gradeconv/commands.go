package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"grade-platform/internal/models"
	"grade-platform/internal/repository"
	"grade-platform/internal/scales"
	"grade-platform/internal/services"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

type globalOptions struct {
	data     string
	sheet    string
	asJSON   bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "gradeconv",
		Short: "Convert climbing grades between scales",
		Long: `gradeconv converts climbing grades between scales using a crosswalk
table in which every row is one difficulty index.

The bundled crosswalk is used unless --data names a CSV or XLSX file.

Example:
  gradeconv convert 6c+ --from FR --to YDS
  gradeconv one 6a --from UK_TECH --to FR --source-policy middle
  gradeconv all 7a --from FR --include-source --json`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.data, "data", "", "Crosswalk CSV or XLSX file")
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read from an XLSX file")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level written to stderr")

	rootCmd.AddCommand(convertCmd(opts))
	rootCmd.AddCommand(oneCmd(opts))
	rootCmd.AddCommand(allCmd(opts))
	rootCmd.AddCommand(scalesCmd(opts))
	rootCmd.AddCommand(variantsCmd(opts))

	return rootCmd
}

// service builds the conversion service for one invocation
func (o *globalOptions) service(cmd *cobra.Command) (*services.ConversionService, error) {
	logger := logging.NewStructuredLogger("gradeconv", version, logging.ParseLevel(o.logLevel))
	logger.SetOutput(cmd.ErrOrStderr())
	collector := metrics.NewCollector("gradeconv", prometheus.NewRegistry())

	var repo repository.GradeScaleRepository = repository.NewEmbeddedRepository()
	if o.data != "" {
		opened, err := repository.Open(o.data, o.sheet)
		if err != nil {
			return nil, err
		}
		repo = opened
	}

	return services.NewScaleLoader(repo, logger, collector).Build(cmd.Context(), nil)
}

func (o *globalOptions) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func gradeValues(grades []models.Grade) string {
	values := make([]string, len(grades))
	for i, g := range grades {
		values[i] = g.Value
	}
	return strings.Join(values, ", ")
}

func convertCmd(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert <grade>",
		Short: "Print every equivalent grade in the target scale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			grades, err := svc.From(args[0], from).To(to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return opts.printJSON(out, grades)
			}
			if len(grades) == 0 {
				fmt.Fprintf(out, "%s (%s): no equivalent in %s\n", args[0], models.CanonicalScaleID(from), models.CanonicalScaleID(to))
				return nil
			}
			fmt.Fprintf(out, "%s (%s) -> %s: %s\n", args[0], models.CanonicalScaleID(from), models.CanonicalScaleID(to), gradeValues(grades))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source scale id (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target scale id (required)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func oneCmd(opts *globalOptions) *cobra.Command {
	var from, to, sourcePolicy, targetPolicy string

	cmd := &cobra.Command{
		Use:   "one <grade>",
		Short: "Print a single equivalent grade chosen by policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcPolicy, err := models.ParsePrimaryIndexPolicy(sourcePolicy)
			if err != nil {
				return err
			}
			tgtPolicy, err := models.ParseTargetVariantPolicy(targetPolicy)
			if err != nil {
				return err
			}

			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			grade, ok, err := svc.From(args[0], from).Towards(to).Single(srcPolicy, tgtPolicy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				var v *models.Grade
				if ok {
					v = &grade
				}
				return opts.printJSON(out, v)
			}
			if !ok {
				fmt.Fprintf(out, "%s (%s): no equivalent in %s\n", args[0], models.CanonicalScaleID(from), models.CanonicalScaleID(to))
				return nil
			}
			fmt.Fprintln(out, grade.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source scale id (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target scale id (required)")
	cmd.Flags().StringVar(&sourcePolicy, "source-policy", "lowest", "Source index policy: lowest, middle or highest")
	cmd.Flags().StringVar(&targetPolicy, "target-policy", "first", "Target variant policy: first, middle or last")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func allCmd(opts *globalOptions) *cobra.Command {
	var from string
	var includeSource bool

	cmd := &cobra.Command{
		Use:   "all <grade>",
		Short: "Print the grade in every registered scale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			all, err := svc.From(args[0], from).ToAll(includeSource)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return opts.printJSON(out, all)
			}
			for scale, grades := range all.All() {
				value := gradeValues(grades)
				if value == "" {
					value = "-"
				}
				fmt.Fprintf(out, "%-10s %s\n", scale, value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source scale id (required)")
	cmd.Flags().BoolVar(&includeSource, "include-source", false, "Include the source scale with the grade unchanged")
	cmd.MarkFlagRequired("from")

	return cmd
}

func scalesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scales",
		Short: "List registered scales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			type scaleRow struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Indexes int    `json:"indexes"`
			}
			rows := make([]scaleRow, 0, len(svc.Scales()))
			for _, s := range svc.Scales() {
				row := scaleRow{ID: s.ID(), Name: s.ID(), Indexes: s.Len()}
				if def, ok := scales.Lookup(s.ID()); ok {
					row.Name = def.Name
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return opts.printJSON(out, rows)
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%-10s %-26s %d\n", row.ID, row.Name, row.Indexes)
			}
			return nil
		},
	}
}

func variantsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "variants <scale> <index>",
		Short: "Print the grades defined at a difficulty index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 1 {
				return &models.ValidationError{
					Field:   "index",
					Value:   args[1],
					Message: fmt.Sprintf("invalid index %q, expected a positive integer", args[1]),
				}
			}

			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			scale, err := svc.Scale(args[0])
			if err != nil {
				return err
			}

			variants := scale.VariantsAt(models.DifficultyIndex(index))
			out := cmd.OutOrStdout()
			if opts.asJSON {
				if variants == nil {
					variants = []string{}
				}
				return opts.printJSON(out, variants)
			}
			if len(variants) == 0 {
				fmt.Fprintf(out, "%s has no grade at index %d\n", scale.ID(), index)
				return nil
			}
			fmt.Fprintln(out, strings.Join(variants, ", "))
			return nil
		},
	}
}
