package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/filen/filen-cache-core/internal/query"
	"github.com/filen/filen-cache-core/internal/store"
)

var errFlagConflict = errors.New("--dirs and --files are mutually exclusive")

func newSearchCmd() *cobra.Command {
	var (
		mime       []string
		minSize    int64
		minModTime int64
		onlyDirs   bool
		onlyFiles  bool
	)

	cmd := &cobra.Command{
		Use:   "search <name-substring>",
		Short: "Search the cached item index",
		Long:  "Search filters every cached item (including search-ingested items whose ancestor directory has never been refreshed) by name substring plus the optional flags below.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			filter := query.SearchFilter{
				NameSubstring: args[0],
				MimeGlobs:     mime,
				MinSize:       minSize,
				MinModified:   minModTime,
			}

			if onlyDirs && onlyFiles {
				return errFlagConflict
			}
			if onlyDirs {
				t := store.TypeDirectory
				filter.Type = &t
			}
			if onlyFiles {
				t := store.TypeFile
				filter.Type = &t
			}

			matches, err := cc.Query.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return printSearchMatches(matches)
		},
	}

	cmd.Flags().StringSliceVar(&mime, "mime", nil, "glob(s) matched against the decoded MIME type")
	cmd.Flags().Int64Var(&minSize, "min-size", 0, "minimum file size in bytes")
	cmd.Flags().Int64Var(&minModTime, "min-modified", 0, "minimum modified time, unix seconds")
	cmd.Flags().BoolVar(&onlyDirs, "dirs", false, "match directories only")
	cmd.Flags().BoolVar(&onlyFiles, "files", false, "match files only")

	return cmd
}

func printSearchMatches(matches []query.SearchMatch) error {
	if !wantTable() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	objects := make([]query.Object, 0, len(matches))
	for _, m := range matches {
		objects = append(objects, m.Object)
	}

	return printObjects(objects)
}
