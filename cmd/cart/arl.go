package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/arl"
	"github.com/Veraticus/the-cart-must-flow/internal/cli"
	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/config"
	"github.com/Veraticus/the-cart-must-flow/internal/ingest"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/prep"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/Veraticus/the-cart-must-flow/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func arlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arl",
		Short: "Association rule learning over retail invoices",
	}

	cmd.AddCommand(mineCmd())
	cmd.AddCommand(rulesCmd())
	cmd.AddCommand(recommendCmd())
	cmd.AddCommand(productCmd())
	cmd.AddCommand(runsCmd())

	return cmd
}

func mineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine [invoices.csv]",
		Short: "Mine association rules from retail invoices",
		Long: `Read an online retail invoice export, clean it, mine frequent itemsets
with apriori and derive association rules.

Cleaning drops incomplete rows, cancelled invoices and non-positive
quantities or prices, then clips quantity and price to their outlier
fences. Use --country to restrict the baskets to one country and --save
to keep the run for 'cart arl rules', 'cart arl recommend' and 'cart export'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMine,
	}

	cmd.Flags().String("invoices", "", "invoice CSV export")
	cmd.Flags().String("country", "", "only use invoices from this country")
	cmd.Flags().Bool("stock-code", true, "key items by stock code instead of description")
	cmd.Flags().Float64("min-support", arl.DefaultMinSupport, "minimum itemset support in (0,1]")
	cmd.Flags().String("metric", string(arl.MetricSupport), "metric that rules are thresholded on")
	cmd.Flags().Float64("min-threshold", arl.DefaultMinThreshold, "minimum value of --metric in (0,1]")
	cmd.Flags().Int("max-len", 0, "largest itemset size (0 for unbounded)")
	cmd.Flags().Int("workers", 0, "concurrent support counters (0 for one per CPU)")
	cmd.Flags().Int("limit", 20, "rules and itemsets to print (0 for all)")
	cmd.Flags().Bool("save", false, "store the run in the database")

	return cmd
}

func runMine(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"invoices":      "mining.invoices",
		"country":       "mining.country",
		"stock-code":    "mining.stock_code",
		"min-support":   "mining.min_support",
		"metric":        "mining.metric",
		"min-threshold": "mining.min_threshold",
		"max-len":       "mining.max_len",
		"workers":       "mining.workers",
	}); err != nil {
		return err
	}
	if len(args) == 1 {
		viper.Set("mining.invoices", args[0])
	}

	cfg, err := config.LoadMiningConfig(viper.GetViper())
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	save, _ := cmd.Flags().GetBool("save")

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Mining", "Nothing was saved. Try a higher --min-support for a faster run.")

	records, err := readFile(cfg.Invoices, "Reading invoices", ingest.ReadInvoices)
	if err != nil {
		return err
	}

	cleaned, report := prep.RetailDataPrep(records, cfg.Prep)
	slog.Info("Cleaned invoices",
		"rows", report.Input,
		"kept", report.Output,
		"missing", report.Missing,
		"cancelled", report.Cancelled,
		"non_positive_quantity", report.NonPositiveQuantity,
		"non_positive_price", report.NonPositivePrice)

	cleaned = prep.FilterCountry(cleaned, cfg.Country)
	if len(cleaned) == 0 {
		return common.NewUserError(fmt.Sprintf("no invoices left for country %q", cfg.Country), common.ErrEmptyDataset)
	}

	engineCfg := cfg.Engine()
	if engineCfg.Miner.Workers == 0 {
		engineCfg.Miner.Workers = defaultWorkers()
	}
	engineCfg.Miner.OnLevel = func(stats arl.LevelStats) {
		common.LogDebug("Counted itemsets", common.Fields{
			"size":       stats.Size,
			"candidates": stats.Candidates,
			"frequent":   stats.Frequent,
		})
	}

	result, err := arl.NewWithConfig(engineCfg).Run(ctx, prep.ToLineItems(cleaned, cfg.UseStockCode))
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}
	for _, invalid := range result.Invalid {
		common.LogDebug("Skipped rule", common.Fields{"error": invalid})
	}

	catalog := prep.BuildCatalog(cleaned)
	if !cfg.UseStockCode {
		catalog = nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Frequent itemsets (%d)", cli.CartIcon, len(result.Itemsets))))
	fmt.Fprintln(out, cli.RenderItemsets(arl.SortItemsets(result.Itemsets), catalog, limit))
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Association rules (%d)", cli.LinkIcon, len(result.Rules))))
	fmt.Fprintln(out, cli.RenderRules(arl.SortRules(result.Rules, arl.MetricLift, true), catalog, limit))

	if !save {
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	run := &model.MiningRun{
		CreatedAt:    time.Now(),
		Source:       filepath.Base(cfg.Invoices),
		Country:      cfg.Country,
		KeyColumn:    cfg.KeyColumn(),
		Metric:       string(cfg.Metric),
		MinSupport:   cfg.MinSupport,
		MinThreshold: cfg.MinThreshold,
		Transactions: result.Matrix.Len(),
		Items:        len(result.Matrix.Items()),
	}
	if err := store.SaveRun(ctx, run, result.Itemsets, result.Rules); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := store.SaveProducts(ctx, prep.BuildCatalog(cleaned)); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved run %d with %d itemsets and %d rules", run.ID, run.ItemsetCount, run.RuleCount)))
	return nil
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the rules of a stored run",
		Long: `Print the rules of a stored mining run, filtered by minimum support,
confidence and lift and sorted by any metric. Use --browse to explore
them interactively, or --itemsets to list the run's frequent itemsets.`,
		RunE: runRules,
	}

	cmd.Flags().Int64("run", 0, "run id (default: latest)")
	cmd.Flags().String("sort", string(arl.MetricLift), "metric to sort by")
	cmd.Flags().Float64("min-support", 0, "only rules with support above this")
	cmd.Flags().Float64("min-confidence", 0, "only rules with confidence above this")
	cmd.Flags().Float64("min-lift", 0, "only rules with lift above this")
	cmd.Flags().Int("limit", 20, "rules to print (0 for all)")
	cmd.Flags().Bool("browse", false, "open the interactive rule browser")
	cmd.Flags().Bool("itemsets", false, "print the frequent itemsets above --min-support instead of rules")

	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd, map[string]string{
		"sort":           "filter.sort",
		"min-support":    "filter.min_support",
		"min-confidence": "filter.min_confidence",
		"min-lift":       "filter.min_lift",
		"limit":          "filter.limit",
	}); err != nil {
		return err
	}
	filter, err := config.LoadFilterConfig(viper.GetViper())
	if err != nil {
		return err
	}
	runID, _ := cmd.Flags().GetInt64("run")
	browse, _ := cmd.Flags().GetBool("browse")
	showItemsets, _ := cmd.Flags().GetBool("itemsets")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	run, rules, catalog, err := loadRunRules(ctx, store, runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showItemsets {
		itemsets, err := store.GetItemsets(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load itemsets of run %d: %w", run.ID, err)
		}
		itemsets = filter.Filter.ApplyItemsets(itemsets)
		fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Run %d: %d of %d frequent itemsets", cli.CartIcon, run.ID, len(itemsets), run.ItemsetCount)))
		fmt.Fprintln(out, cli.RenderItemsets(arl.SortItemsets(itemsets), catalog, filter.Limit))
		return nil
	}

	rules = filter.Filter.Apply(rules)

	if browse {
		return tui.Browse(ctx, rules, catalog)
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Run %d: %d of %d rules", cli.LinkIcon, run.ID, len(rules), run.RuleCount)))
	fmt.Fprintln(out, cli.RenderRules(arl.SortRules(rules, filter.SortBy, true), catalog, filter.Limit))
	return nil
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend ITEM",
		Short: "Recommend items bought together with ITEM",
		Long: `Rank the rules of a stored run by lift and return the first consequent
of every rule whose antecedents contain ITEM.`,
		Args: cobra.ExactArgs(1),
		RunE: runRecommend,
	}

	cmd.Flags().Int64("run", 0, "run id (default: latest)")
	cmd.Flags().Int("count", arl.DefaultRecommendationCount, "number of recommendations")
	cmd.Flags().Bool("distinct", false, "skip items that were already recommended")

	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetInt64("run")
	count, _ := cmd.Flags().GetInt("count")
	distinct, _ := cmd.Flags().GetBool("distinct")
	if count <= 0 {
		return common.InvalidConfigf("count must be positive, got %d", count)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	_, rules, catalog, err := loadRunRules(ctx, store, runID)
	if err != nil {
		return err
	}

	item := args[0]
	recommend := arl.Recommend
	if distinct {
		recommend = arl.RecommendDistinct
	}
	recs := recommend(rules, item, count)

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No rule has %s on its left-hand side", catalog.Describe(item))))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Bought with %s", cli.CartIcon, catalog.Describe(item))))
	for i, rec := range recs {
		fmt.Fprintf(out, "%d. %s\n", i+1, cli.FormatItems([]string{rec}, catalog))
	}
	return nil
}

func productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product CODE",
		Short: "Look up the description of a stock code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			description, err := store.GetProduct(ctx, args[0])
			if err != nil {
				return common.NewUserError(fmt.Sprintf("unknown stock code %s", args[0]), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], description)
			return nil
		},
	}
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage stored mining runs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored mining runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			country, _ := cmd.Flags().GetString("country")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx, service.RunFilter{Country: country, Limit: limit})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No mining runs stored yet"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRuns(runs))
			return nil
		},
	}
	list.Flags().String("country", "", "only runs for this country")
	list.Flags().Int("limit", 0, "maximum runs to list (0 for all)")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored run with its itemsets and rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("invalid run id %q", args[0]), err)
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRun(ctx, id); err != nil {
				return common.NewUserError(fmt.Sprintf("could not delete run %d", id), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted run %d", id)))
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}
