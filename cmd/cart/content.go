package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-cart-must-flow/internal/cli"
	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/config"
	"github.com/Veraticus/the-cart-must-flow/internal/content"
	"github.com/Veraticus/the-cart-must-flow/internal/ingest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Recommend movies with similar overviews",
	}

	similar := &cobra.Command{
		Use:   "similar TITLE",
		Short: "List the movies whose overviews are closest to TITLE",
		Long: `Build TF-IDF vectors of every movie overview, English stop words removed,
and rank all movies by cosine similarity to TITLE.`,
		Args: cobra.ExactArgs(1),
		RunE: runContentSimilar,
	}
	similar.Flags().String("movies", "", "movies metadata CSV with title and overview columns")
	similar.Flags().Int("top", content.DefaultSimilarCount, "number of similar movies")

	cmd.AddCommand(similar)
	return cmd
}

func runContentSimilar(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"movies": "content.movies",
		"top":    "content.top",
	}); err != nil {
		return err
	}
	cfg, err := config.LoadContentConfig(viper.GetViper())
	if err != nil {
		return err
	}

	movies, err := readFile(cfg.Movies, "Reading movies", ingest.ReadMovies)
	if err != nil {
		return err
	}

	index := content.NewIndex(movies, content.DefaultOptions())
	slog.Info("Built overview index", "movies", index.Len(), "terms", index.Vocabulary())

	similar, err := index.Similar(args[0], cfg.Top)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("no movie titled %q", args[0]), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Movies like %s", cli.MovieIcon, args[0])))
	fmt.Fprintln(out, cli.RenderScoredTitles(similar, "Similarity"))
	return nil
}
