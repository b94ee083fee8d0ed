package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"liscraper/pkg/checkpoint"
	"liscraper/pkg/config"
	"liscraper/pkg/ui"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or reset harvest progress",
	Long: `Inspect or reset the checkpoint file that records harvest progress.

The checkpoint holds the CSV file a run writes into, the highest listing
index committed, and the fingerprints of recently committed records. It is
deleted automatically when a harvest completes; these commands are for
inspecting or abandoning an interrupted run.`,
}

// checkpointShowCmd represents the checkpoint show command
var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current checkpoint",
	Run:   runCheckpointShow,
}

// checkpointClearCmd represents the checkpoint clear command
var checkpointClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the checkpoint, abandoning the interrupted run",
	Long: `Delete the checkpoint file. The next harvest starts from the top of the
listing into a new CSV file; already-written CSV files are never touched.`,
	Run: runCheckpointClear,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)
}

func checkpointManager() *checkpoint.Manager {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	mgr, err := checkpoint.NewManager(cfg.Checkpoint.Path)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(1)
	}
	return mgr
}

func runCheckpointShow(cmd *cobra.Command, args []string) {
	mgr := checkpointManager()

	if !mgr.Exists() {
		ui.PrintInfo("No checkpoint", "no interrupted run to resume")
		fmt.Printf("  Path: %s\n", mgr.Path())
		return
	}

	cp, err := mgr.Load()
	if err != nil {
		ui.PrintError("Failed to load checkpoint", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Checkpoint")
	fmt.Printf("  Path:              %s\n", mgr.Path())
	fmt.Printf("  CSV file:          %s\n", cp.CSVFilename)
	fmt.Printf("  Last index:        %d\n", cp.LastProfileIndex)
	fmt.Printf("  Fingerprints held: %d (max %d)\n", cp.ProcessedCount(), checkpoint.MaxProcessedIDs)
	fmt.Println("\nRun 'liscraper harvest' to resume.")
}

func runCheckpointClear(cmd *cobra.Command, args []string) {
	mgr := checkpointManager()

	if !mgr.Exists() {
		ui.PrintInfo("No checkpoint", "nothing to clear")
		return
	}

	cp, err := mgr.Load()
	if err == nil && cp.CSVFilename != "" {
		fmt.Printf("Checkpoint points at %s (last index %d).\n", cp.CSVFilename, cp.LastProfileIndex)
	}
	fmt.Print("Delete the checkpoint? The next harvest starts over. [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("Cancelled.")
		return
	}

	if err := mgr.Clear(); err != nil {
		ui.PrintError("Failed to delete checkpoint", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Checkpoint deleted")
}
