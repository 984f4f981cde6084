package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"attritionboard/domain/dataset"
	"attritionboard/internal/analysis"
	"attritionboard/internal/config"
	"attritionboard/internal/container"
	"attritionboard/internal/pipeline"
	"attritionboard/internal/profiling"
	"attritionboard/internal/report"
)

// Global flags shared by every command.
var (
	sourceFlag  string
	profileFlag string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "attrition-cli",
		Short: "Attrition dashboard CLI for computing charts and reports from a CSV source",
	}
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Dataset URL or synthetic://attrition (default from DATA_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Dashboard profile file (default from PROFILE_FILE)")

	rootCmd.AddCommand(
		newSummaryCmd(),
		newFrequencyCmd(),
		newCrossTabCmd(),
		newOutliersCmd(),
		newHistogramCmd(),
		newReportCmd(),
		newExportCmd(),
		newRenderCmd(),
		newProfileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is a loaded dataset with the pipeline configured for it.
type session struct {
	container *container.Container
	dataset   *dataset.Dataset
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if sourceFlag != "" {
		cfg.Data.Source = sourceFlag
	}
	if profileFlag != "" {
		cfg.Data.ProfileFile = profileFlag
	}
	profile, err := config.LoadProfile(cfg.Data.ProfileFile)
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg, profile)
	if err != nil {
		return nil, err
	}
	ds, err := c.Source.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &session{container: c, dataset: ds}, nil
}

func (s *session) profile() *config.Profile { return s.container.Profile }

func (s *session) compute(ctx context.Context, sel dataset.Selection) (*pipeline.ChartData, error) {
	data, err := s.container.Pipeline.Compute(ctx, s.dataset, sel)
	if err != nil {
		return nil, err
	}
	for _, w := range data.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return data, nil
}

func addSelectionFlags(cmd *cobra.Command, sel *dataset.Selection) {
	cmd.Flags().StringVar(&sel.Categorical, "categorical", "", "Categorical column (default: first categorical column)")
	cmd.Flags().StringVar(&sel.Numerical, "numerical", "", "Numerical column (default: first numerical column)")
}

func newSummaryCmd() *cobra.Command {
	var sel dataset.Selection

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dataset metrics, schema and chart status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			data, err := s.compute(cmd.Context(), sel)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", data.Title)
			fmt.Printf("Source: %s\nHash: %s\nRun: %s\n\n", data.Source, data.Hash, data.RunID)
			printMetrics(data.Metrics)
			printSchema(data.Schema)
			printResponse(data.ResponseLabels)
			printCharts(data.Charts)
			return nil
		},
	}
	addSelectionFlags(cmd, &sel)
	return cmd
}

func newFrequencyCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "frequency [column]",
		Short: "Print the value counts of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			t, err := analysis.Frequency(s.dataset, args[0])
			if err != nil {
				return err
			}
			printFrequency(t, top)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Only print the most frequent N values (0 prints all)")
	return cmd
}

func newCrossTabCmd() *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:   "crosstab [column]",
		Short: "Print counts of a column against the response column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if response == "" {
				response = s.profile().ResponseColumn
			}
			x, err := analysis.CrossTabulate(s.dataset, args[0], response, s.profile().ResponseLevels)
			if err != nil {
				return err
			}
			printCrossTab(x)
			return nil
		},
	}
	cmd.Flags().StringVar(&response, "response", "", "Response column (default from profile)")
	return cmd
}

func newOutliersCmd() *cobra.Command {
	var multiplier float64

	cmd := &cobra.Command{
		Use:   "outliers [column]",
		Short: "Print the Tukey fence of a numerical column and how many rows it drops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if multiplier == 0 {
				multiplier = s.profile().FenceMultiplier
			}
			res, err := analysis.FilterOutliers(s.dataset, args[0], multiplier)
			if err != nil {
				return err
			}
			printFence(res)
			summary, err := profiling.Describe(res.Dataset, args[0])
			if err == nil {
				printNumericSummary(summary)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&multiplier, "multiplier", 0, "IQR multiplier (default from profile)")
	return cmd
}

func newHistogramCmd() *cobra.Command {
	var bins int
	var filter bool

	cmd := &cobra.Command{
		Use:   "histogram [column]",
		Short: "Print the binned distribution of a numerical column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			ds := s.dataset
			if filter {
				res, err := analysis.FilterOutliers(ds, args[0], s.profile().FenceMultiplier)
				if err != nil {
					return err
				}
				ds = res.Dataset
			}
			if !cmd.Flags().Changed("bins") {
				bins = s.profile().HistogramBins
			}
			h, err := analysis.Bucketize(ds, args[0], bins)
			if err != nil {
				return err
			}
			printHistogram(h)
			return nil
		},
	}
	cmd.Flags().IntVar(&bins, "bins", 0, "Equal-width bin count (0 uses nice bins)")
	cmd.Flags().BoolVar(&filter, "filter-outliers", true, "Drop rows outside the fence before binning")
	return cmd
}

func newReportCmd() *cobra.Command {
	var sel dataset.Selection
	var output string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard as a Markdown (or HTML) report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			data, err := s.compute(cmd.Context(), sel)
			if err != nil {
				return err
			}
			out := []byte(report.Markdown(data))
			if asHTML {
				out = report.HTML(string(out))
			}
			if output == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("Report written to %s\n", output)
			return nil
		},
	}
	addSelectionFlags(cmd, &sel)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the report as HTML")
	return cmd
}

func newExportCmd() *cobra.Command {
	var sel dataset.Selection
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the computed tables to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			data, err := s.compute(cmd.Context(), sel)
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()
			if err := data.WriteXLSX(f); err != nil {
				return err
			}
			fmt.Printf("Workbook written to %s\n", output)
			return nil
		},
	}
	addSelectionFlags(cmd, &sel)
	cmd.Flags().StringVarP(&output, "output", "o", "attrition.xlsx", "Output workbook")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var sel dataset.Selection
	var output string

	cmd := &cobra.Command{
		Use:   "render [chart]",
		Short: "Render one chart as PNG (response, category, histogram, stacked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(args[0])
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			data, err := s.compute(cmd.Context(), sel)
			if err != nil {
				return err
			}
			if output == "" {
				output = name + ".png"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()
			if err := s.container.Pipeline.RenderPNG(f, name, data); err != nil {
				return err
			}
			fmt.Printf("Chart %s written to %s\n", name, output)
			return nil
		},
	}
	addSelectionFlags(cmd, &sel)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <chart>.png)")
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage dashboard profiles",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default attrition profile as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "profile.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveProfile(config.DefaultProfile(), path); err != nil {
				return err
			}
			fmt.Printf("Profile written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
