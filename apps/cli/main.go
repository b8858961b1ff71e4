package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/barasher/go-exiftool"
	"github.com/spf13/cobra"

	"mediarename/internal/backup"
	"mediarename/internal/config"
	"mediarename/internal/logger"
	"mediarename/internal/media"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "mediarename",
	Short:   "Rename photo and video files after their capture date",
	Long:    `Mediarename extracts the capture date from photo EXIF or video container metadata, renames files after a template, optionally organises them into date folders, and keeps an undo history per directory.`,
	Version: version,
}

var renameCmd = &cobra.Command{
	Use:   "rename DIRECTORY",
	Short: "Rename media files in a directory",
	Long:  `Scans a directory recursively and renames every supported photo and video after its capture date. Already-renamed files are skipped unless --again is given.`,
	Args:  cobra.ExactArgs(1),
	Run:   runRename,
}

var undoCmd = &cobra.Command{
	Use:   "undo DIRECTORY",
	Short: "Revert the most recent rename batch",
	Args:  cobra.ExactArgs(1),
	Run:   runUndo,
}

var historyCmd = &cobra.Command{
	Use:   "history DIRECTORY",
	Short: "List the recorded rename batches for a directory",
	Args:  cobra.ExactArgs(1),
	Run:   runHistory,
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history DIRECTORY",
	Short: "Discard the recorded rename batches for a directory",
	Args:  cobra.ExactArgs(1),
	Run:   runClearHistory,
}

var backupCmd = &cobra.Command{
	Use:   "backup DIRECTORY BUCKET",
	Short: "Archive organised date directories to S3",
	Long:  `Creates a tar.gz archive of each first-level subdirectory and uploads it to S3, skipping archives already stored with identical content.`,
	Args:  cobra.RangeArgs(1, 2),
	Run:   runBackup,
}

var (
	templateFlag  string
	organizeFlag  string
	dryRun        bool
	renameAgain   bool
	useCache      bool
	maxConcurrent int
)

func init() {
	renameCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Filename template (default "+media.DefaultTemplate+")")
	renameCmd.Flags().StringVarP(&organizeFlag, "organize", "o", "", "Organise into date folders: none, year, year-month or date")
	renameCmd.Flags().BoolVar(&dryRun, "test", false, "Show what would be renamed without touching any file")
	renameCmd.Flags().BoolVar(&renameAgain, "again", false, "Re-rename files that already match the output pattern")
	renameCmd.Flags().BoolVar(&useCache, "cache", false, "Cache resolved capture dates between runs")

	backupCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "c", 0, "Maximum concurrent uploads")

	rootCmd.AddCommand(renameCmd, undoCmd, historyCmd, clearHistoryCmd, backupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRename(cmd *cobra.Command, args []string) {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		logger.Error("Invalid directory", "error", err)
		os.Exit(1)
	}

	fileCfg, err := config.Load()
	if err != nil {
		logger.Warn("Cannot load config file, using defaults", "error", err)
		fileCfg = config.Default()
	}

	templateStr := templateFlag
	if templateStr == "" {
		templateStr = fileCfg.Template
	}
	organizeStr := organizeFlag
	if organizeStr == "" {
		organizeStr = fileCfg.Organize
	}
	mode, err := media.ParseOrganizationMode(organizeStr)
	if err != nil {
		logger.Error("Invalid organize flag", "error", err)
		os.Exit(1)
	}

	cfg := media.Config{
		Template:     media.ParseTemplate(templateStr),
		Organization: mode,
		RenameAgain:  renameAgain,
		DryRun:       dryRun,
	}

	// The exiftool binary is optional; without it photos fall back to
	// the built-in EXIF reader.
	et, err := exiftool.NewExiftool()
	if err != nil {
		logger.Warn("exiftool not available, using built-in EXIF reader", "error", err)
		et = nil
	} else {
		defer et.Close()
	}

	resolver := media.NewDateResolver(et)
	if useCache || fileCfg.UseCache {
		if cache := openProbeCache(); cache != nil {
			defer cache.Close()
			resolver.UseCache(cache)
		}
	}

	scan, err := media.NewScanner(media.NewExtensions()).Scan(dir)
	if err != nil {
		logger.Error("Scan failed", "error", err)
		os.Exit(1)
	}

	plan := media.NewPlanner(resolver).Plan(dir, scan.Files, cfg)
	plan.Stats.Unsupported = scan.Unsupported

	if cfg.DryRun {
		for _, op := range plan.Operations {
			fmt.Printf("[TEST] %s -> %s\n", relOrSelf(dir, op.Source), relOrSelf(dir, op.Destination))
		}
		stats := plan.Stats
		stats.Renamed = len(plan.Operations)
		fmt.Println(summarize(stats, true))
		return
	}

	stats, err := media.NewExecutor(media.NewHistoryLedger()).Execute(plan, nil)
	if err != nil {
		logger.Error("Batch aborted", "error", err)
		os.Exit(1)
	}
	fmt.Println(summarize(stats, false))
}

func runUndo(cmd *cobra.Command, args []string) {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		logger.Error("Invalid directory", "error", err)
		os.Exit(1)
	}

	result, err := media.NewHistoryLedger().Undo(dir)
	if errors.Is(err, media.ErrNothingToUndo) {
		fmt.Println("Nothing to undo")
		return
	}
	if err != nil {
		logger.Error("Undo failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Restored %d files\n", result.Restored)
	for _, failure := range result.Failures {
		fmt.Printf("  failed: %s\n", failure)
	}
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		logger.Error("Invalid directory", "error", err)
		os.Exit(1)
	}

	entries := media.NewHistoryLedger().List(dir)
	if len(entries) == 0 {
		fmt.Println("No history recorded")
		return
	}
	for i, entry := range entries {
		fmt.Printf("%2d. %s  (%d files)\n", i+1, entry.Timestamp, len(entry.Operations))
	}
}

func runClearHistory(cmd *cobra.Command, args []string) {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		logger.Error("Invalid directory", "error", err)
		os.Exit(1)
	}

	if err := media.NewHistoryLedger().Clear(dir); err != nil {
		logger.Error("Failed to clear history", "error", err)
		os.Exit(1)
	}
	fmt.Println("History cleared")
}

func runBackup(cmd *cobra.Command, args []string) {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Error("Source path is not a directory", "path", dir)
		os.Exit(1)
	}

	fileCfg, err := config.Load()
	if err != nil {
		logger.Warn("Cannot load config file, using defaults", "error", err)
		fileCfg = config.Default()
	}

	bucket := fileCfg.BackupBucket
	if len(args) == 2 {
		bucket = args[1]
	}
	if bucket == "" {
		logger.Error("No bucket given and no backup_bucket configured")
		os.Exit(1)
	}

	workers := maxConcurrent
	if workers == 0 {
		workers = fileCfg.MaxConcurrent
	}

	ctx := context.Background()
	vault, err := backup.NewVault(ctx)
	if err != nil {
		logger.Error("Failed to initialise backup", "error", err)
		os.Exit(1)
	}

	if err := vault.ArchiveDirectories(ctx, dir, bucket, workers); err != nil {
		logger.Error("Backup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Backup completed successfully")
}

// openProbeCache opens the capture-date cache under the user cache
// directory. Failures disable caching instead of aborting the batch.
func openProbeCache() *media.ProbeCache {
	base, err := os.UserCacheDir()
	if err != nil {
		logger.Warn("No user cache directory, probe cache disabled", "error", err)
		return nil
	}
	cacheDir := filepath.Join(base, "mediarename")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.Warn("Cannot create cache directory, probe cache disabled", "error", err)
		return nil
	}
	cache, err := media.OpenProbeCache(filepath.Join(cacheDir, "probecache.db"))
	if err != nil {
		logger.Warn("Cannot open probe cache, continuing without it", "error", err)
		return nil
	}
	return cache
}

// relOrSelf shortens a path relative to the batch directory for output.
func relOrSelf(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}

// summarize renders the batch outcome on one line.
func summarize(stats media.BatchStats, dryRun bool) string {
	verb := "renamed"
	if dryRun {
		verb = "would rename"
	}
	return fmt.Sprintf("%s %d, already renamed %d, unsupported %d, failed %d",
		verb, stats.Renamed, stats.AlreadyRenamed, stats.Unsupported, stats.Failed)
}
