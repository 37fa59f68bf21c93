package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// SweepCoversCommand removes uploaded covers that no book references.
type SweepCoversCommand struct {
	DatabasePath string
	UploadsDir   string
	Grace        time.Duration
}

// NewSweepCoversCommand seeds the flag defaults from cfg, so a plain run
// sees the same database and uploads directory as the server.
func NewSweepCoversCommand(cfg *config.Config) *SweepCoversCommand {
	return &SweepCoversCommand{
		DatabasePath: cfg.Database.Path,
		UploadsDir:   cfg.Uploads.Dir,
		Grace:        cfg.Uploads.SweepGrace,
	}
}

func (cmd *SweepCoversCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep-covers", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file (DATABASE_PATH)")
	fs.StringVar(&cmd.UploadsDir, "uploads", cmd.UploadsDir, "Directory holding uploaded covers (UPLOADS_DIR)")
	fs.DurationVar(&cmd.Grace, "grace", cmd.Grace, "Keep unreferenced files younger than this (COVER_SWEEP_GRACE)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep-covers [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Remove uploaded cover images that no book references.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sweep-covers\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sweep-covers -db ./bookshelf.db -uploads ./uploads -grace 0s\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Grace < 0 {
		return fmt.Errorf("grace must not be negative")
	}
	return nil
}

func (cmd *SweepCoversCommand) Run() error {
	if _, err := os.Stat(cmd.DatabasePath); os.IsNotExist(err) {
		return fmt.Errorf("database does not exist: %s", cmd.DatabasePath)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store, err := covers.NewStore(cmd.UploadsDir, 0)
	if err != nil {
		return fmt.Errorf("failed to open uploads directory: %w", err)
	}

	removed, err := tasks.SweepCovers(books.NewRepository(db.DB), store, cmd.Grace)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d unreferenced cover(s) from %s\n", removed, store.Dir())
	return nil
}
