package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/cli"
	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/config"
	"github.com/Veraticus/the-cart-must-flow/internal/ingest"
	"github.com/Veraticus/the-cart-must-flow/internal/itemcf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func itemcfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "itemcf",
		Short: "Recommend movies from correlated user ratings",
		Long: `Item-based collaborative filtering over MovieLens ratings. Only titles
with more than --min-ratings ratings are kept; each recommendation is the
Pearson correlation between two titles over the users who rated both.`,
	}

	cmd.PersistentFlags().String("movies", "", "MovieLens movies CSV (movieId, title)")
	cmd.PersistentFlags().String("ratings", "", "MovieLens ratings CSV (userId, movieId, rating)")
	cmd.PersistentFlags().Int("min-ratings", itemcf.DefaultMinRatings, "keep titles with more ratings than this")

	recommend := &cobra.Command{
		Use:   "recommend [TITLE]",
		Short: "List the titles most correlated with TITLE",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runItemCFRecommend,
	}
	recommend.Flags().Int("top", itemcf.DefaultRecommendationCount, "number of recommendations")
	recommend.Flags().Bool("random", false, "pick a random title instead of TITLE")

	search := &cobra.Command{
		Use:   "search KEYWORD",
		Short: "List the kept titles containing KEYWORD",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemCFSearch,
	}

	cmd.AddCommand(recommend, search)
	return cmd
}

func loadItemCF(cmd *cobra.Command, cfgKeys map[string]string) (*itemcf.Matrix, config.ItemCFConfig, error) {
	keys := map[string]string{
		"movies":      "itemcf.movies",
		"ratings":     "itemcf.ratings",
		"min-ratings": "itemcf.min_ratings",
	}
	for flag, key := range cfgKeys {
		keys[flag] = key
	}
	if err := bindFlags(cmd, keys); err != nil {
		return nil, config.ItemCFConfig{}, err
	}
	cfg, err := config.LoadItemCFConfig(viper.GetViper())
	if err != nil {
		return nil, cfg, err
	}

	moviesFile, err := ingest.OpenWithProgress(cfg.Movies, "Reading movies")
	if err != nil {
		return nil, cfg, err
	}
	defer func() { _ = moviesFile.Close() }()
	ratingsFile, err := ingest.OpenWithProgress(cfg.Ratings, "Reading ratings")
	if err != nil {
		return nil, cfg, err
	}
	defer func() { _ = ratingsFile.Close() }()

	movies, ratings, err := ingest.ReadMovieLens(moviesFile, ratingsFile)
	if err != nil {
		return nil, cfg, err
	}

	started := time.Now()
	matrix, err := itemcf.NewUserMovieMatrix(movies, ratings, cfg.MinRatings)
	if err != nil {
		return nil, cfg, err
	}
	common.LogStage(cmd.Context(), "user_movie_matrix", started, common.Fields{
		"titles": len(matrix.Titles()),
		"users":  matrix.Users(),
	})
	if len(matrix.Titles()) == 0 {
		return nil, cfg, common.NewUserError(
			fmt.Sprintf("no title has more than %d ratings, lower --min-ratings", cfg.MinRatings),
			common.ErrEmptyDataset)
	}
	return matrix, cfg, nil
}

func runItemCFRecommend(cmd *cobra.Command, args []string) error {
	random, _ := cmd.Flags().GetBool("random")
	if random == (len(args) == 1) {
		return common.NewUserError("give either a TITLE or --random", common.ErrMissingConfig)
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Recommendation", "")
	cmd.SetContext(ctx)

	matrix, cfg, err := loadItemCF(cmd, map[string]string{"top": "itemcf.top"})
	if err != nil {
		return err
	}

	var title string
	if random {
		title = matrix.SampleTitle(rand.New(rand.NewSource(time.Now().UnixNano()))) //nolint:gosec
		slog.Info("Picked a random title", "title", title)
	} else {
		title = args[0]
	}

	recs, err := matrix.Recommend(ctx, title, cfg.Top)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("%q is not among the kept titles, try 'cart itemcf search'", title), err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Viewers of %s also liked", cli.MovieIcon, title)))
	fmt.Fprintln(out, cli.RenderScoredTitles(recs, "Correlation"))
	return nil
}

func runItemCFSearch(cmd *cobra.Command, args []string) error {
	matrix, _, err := loadItemCF(cmd, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	matches := matrix.Search(args[0])
	if len(matches) == 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("No kept title contains %q", args[0])))
		return nil
	}
	for _, title := range matches {
		fmt.Fprintln(out, title)
	}
	return nil
}
