package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"doccheck/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := openDiskCache(cmd)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), disk.Dir())
		return err
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := openDiskCache(cmd)
		if err != nil {
			return err
		}
		if err := disk.DropAll(); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", disk.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd, cacheCleanCmd)
}

// openDiskCache opens the cache directory named by the configuration,
// whether or not caching is enabled for checks.
func openDiskCache(cmd *cobra.Command) (*driver.DiskCache, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	disk, err := driver.OpenDiskCache(appName, cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return disk, nil
}
