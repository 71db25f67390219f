package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/relive/relive/internal/app"
	"github.com/relive/relive/internal/config"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/validation"

	"github.com/spf13/cobra"
)

func ImportCmd() *cobra.Command {
	var email string

	importCmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import a directory of markdown files as memories",
		Long: `Import every *.md file below <dir> as a memory owned by --email.

Front matter keys: title, date (YYYY-MM-DD), mood, location, tags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], email)
		},
	}

	importCmd.Flags().StringVar(&email, "email", "", "email of the account that owns the imported memories")
	_ = importCmd.MarkFlagRequired("email")

	return importCmd
}

func runImport(cmd *cobra.Command, dir, email string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	a, err := app.New(config.Load())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	user, err := repository.NewUserRepository(a.DB).ByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find account %s: %w", email, err)
	}

	result, err := a.Importer.ImportDir(ctx, user.ID, os.DirFS(dir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d memories\n", result.Imported)

	skipped := make([]string, 0, len(result.Skipped))
	for path := range result.Skipped {
		skipped = append(skipped, path)
	}
	sort.Strings(skipped)
	for _, path := range skipped {
		fmt.Fprintf(out, "skipped %s: %v\n", path, result.Skipped[path])
	}

	slog.Info("import finished", "user_id", user.ID, "imported", result.Imported, "skipped", len(skipped))
	return nil
}
