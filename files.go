package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/filen/filen-cache-core/internal/query"
	"github.com/filen/filen-cache-core/internal/store"
)

// typeLabel renders an ItemType for table output.
func typeLabel(t store.ItemType) string {
	switch t {
	case store.TypeRoot:
		return "root"
	case store.TypeDirectory:
		return "dir"
	default:
		return "file"
	}
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <uuid>",
		Short: "List the cached children of a directory",
		Long:  "List the cached children of a directory by its uuid. Children are read from the local cache as of the last refresh; it does not contact the remote drive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			children, err := cc.Query.ListDirChildren(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printObjects(children)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid>",
		Short: "Show the cached metadata of a single item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			obj, err := cc.Query.GetObject(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printObjects([]query.Object{obj})
		},
	}
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <parent-uuid> <name>",
		Short: "Resolve a child by name under a cached directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			obj, err := cc.Query.FindChild(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return printObjects([]query.Object{obj})
		},
	}
}

func newRecentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recents",
		Short: "List items marked recent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			items, err := cc.Query.ListRecents(cmd.Context())
			if err != nil {
				return err
			}

			return printObjects(items)
		},
	}
}

func newRootInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root",
		Short: "Show root accounting (storage used / quota)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			info, err := cc.Query.GetRoot(cmd.Context())
			if err != nil {
				return err
			}

			if !wantTable() {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Printf("uuid:         %s\n", info.UUID)
			fmt.Printf("storage used: %s\n", formatSize(info.StorageUsed))
			fmt.Printf("storage max:  %s\n", formatSize(info.MaxStorage))
			fmt.Printf("last updated: %s\n", formatTime(time.Unix(info.LastUpdated, 0)))

			return nil
		},
	}
}

// printObjects renders objects as JSON or an aligned table depending on
// --json and terminal detection.
func printObjects(objects []query.Object) error {
	if !wantTable() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(objects)
	}

	headers := []string{"UUID", "TYPE", "NAME", "SIZE", "PATH"}
	rows := make([][]string, 0, len(objects))

	for _, obj := range objects {
		rows = append(rows, []string{
			obj.UUID,
			typeLabel(obj.Type),
			obj.EffectiveName(),
			formatSize(obj.Size),
			obj.Path,
		})
	}

	printTable(os.Stdout, headers, rows)

	return nil
}
