package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethicsbot/backend/internal/repository"
	"github.com/ethicsbot/backend/internal/service"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the class roster",
}

// rosterImportCmd 从 CSV 导入名册，第一列为用户名
var rosterImportCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Import participants from a CSV file",
	Long: `Import participants from the first column of a CSV file.

When no file is given the configured roster file is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRosterImport,
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants on the roster",
	RunE:  runRosterList,
}

func init() {
	rosterCmd.AddCommand(rosterImportCmd)
	rosterCmd.AddCommand(rosterListCmd)
}

func runRosterImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Data.RosterFile
	if len(args) == 1 {
		path = args[0]
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	added, err := service.ImportRoster(cmd.Context(), repository.NewParticipantRepository(db), path)
	if err != nil {
		return fmt.Errorf("import roster %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d new participants from %s\n", added, path)
	return nil
}

func runRosterList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	list, err := repository.NewParticipantRepository(db).List(cmd.Context())
	if err != nil {
		return err
	}
	for _, p := range list {
		fmt.Fprintln(cmd.OutOrStdout(), p.Username)
	}
	return nil
}
