// Command linkcheck lints the admin panel sources for internal links
// that point at nonexistent pages. It is meant to run in CI before a
// panel deploy.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/superior-pamerca/admin-api/internal/linkmon"
)

var (
	rootDir     string
	pagesDir    string
	scanDirs    []string
	extensions  []string
	ignorePaths []string
)

func newScanner() *linkmon.Scanner {
	cfg := linkmon.DefaultScannerConfig(rootDir)
	if pagesDir != "" {
		cfg.PagesDir = pagesDir
	}
	if len(scanDirs) > 0 {
		cfg.ScanDirs = scanDirs
	}
	if len(extensions) > 0 {
		cfg.FileExtensions = extensions
	}
	if len(ignorePaths) > 0 {
		cfg.IgnorePaths = ignorePaths
	}
	return linkmon.NewScanner(cfg)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "linkcheck",
		Short:        "Verify internal admin links against the page tree",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			broken, err := newScanner().Verify()
			if err != nil {
				return err
			}

			if len(broken) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No broken links found")
				return nil
			}

			for _, link := range broken {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: broken link %s\n", link.Source, link.Line, link.Link)
			}
			return fmt.Errorf("%d broken links", len(broken))
		},
	}

	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "panel project root")
	rootCmd.PersistentFlags().StringVar(&pagesDir, "pages-dir", "", "override the pages directory")
	rootCmd.PersistentFlags().StringSliceVar(&scanDirs, "scan-dir", nil, "override the scanned source directories")
	rootCmd.PersistentFlags().StringSliceVar(&extensions, "ext", nil, "override the scanned file extensions")
	rootCmd.PersistentFlags().StringSliceVar(&ignorePaths, "ignore", nil, "links excluded from verification")

	rootCmd.AddCommand(newRoutesCmd(), newLinksCmd())
	return rootCmd
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the routes derived from the page tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := newScanner().Routes()
			if err != nil {
				return err
			}
			for _, route := range routes {
				fmt.Fprintln(cmd.OutOrStdout(), route)
			}
			return nil
		},
	}
}

func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Print every extracted admin link with its source location",
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := newScanner().ExtractLinks()
			if err != nil {
				return err
			}
			for _, link := range links {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", link.Source, link.Line, link.Link)
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
