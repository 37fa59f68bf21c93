package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// CleanupAuditCommand purges audit events older than the retention period.
type CleanupAuditCommand struct {
	DatabasePath  string
	RetentionDays int
}

// NewCleanupAuditCommand seeds the flag defaults from cfg.
func NewCleanupAuditCommand(cfg *config.Config) *CleanupAuditCommand {
	return &CleanupAuditCommand{
		DatabasePath:  cfg.Database.Path,
		RetentionDays: cfg.Audit.RetentionDays,
	}
}

func (cmd *CleanupAuditCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cleanup-audit", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file (DATABASE_PATH)")
	fs.IntVar(&cmd.RetentionDays, "days", cmd.RetentionDays, "Delete events older than this many days (AUDIT_RETENTION_DAYS)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cleanup-audit [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete audit events older than the retention period.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.RetentionDays < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	return nil
}

func (cmd *CleanupAuditCommand) Run() error {
	if _, err := os.Stat(cmd.DatabasePath); os.IsNotExist(err) {
		return fmt.Errorf("database does not exist: %s", cmd.DatabasePath)
	}

	db, err := database.NewQuietDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := audit.NewService(auditrepo.NewRepository(db.DB))
	deleted, err := tasks.PurgeAuditEvents(service, cmd.RetentionDays)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d audit event(s) older than %d days\n", deleted, cmd.RetentionDays)
	return nil
}
