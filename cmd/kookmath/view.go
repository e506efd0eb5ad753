package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kug0115-cpu/kookmath/internal/curriculum"
	"github.com/kug0115-cpu/kookmath/internal/export"
)

func (c *cli) showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the catalog tree in display order",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if asJSON {
				doc, err := c.app.Shelf.Document()
				if err != nil {
					return err
				}
				c.printf("%s\n", doc)
				return nil
			}
			return c.printTree()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON document")
	return cmd
}

func (c *cli) printTree() error {
	w := bufio.NewWriter(c.out)
	for _, g := range c.app.Shelf.SortedGrades() {
		fmt.Fprintf(w, "%s [%s]\n", g.Name, g.ID)
		for bi, b := range g.Books {
			fmt.Fprintf(w, "  %d. %s [%s]\n", bi, b.Title, b.ID)
			for ci, ch := range b.Chapters {
				linked := 0
				for _, v := range ch.Videos {
					if v.Linked() {
						linked++
					}
				}
				fmt.Fprintf(w, "    %d. %s (%d/%d linked)\n", ci, ch.Name, linked, len(ch.Videos))
			}
		}
	}
	return w.Flush()
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dir>",
		Short: "Add books from YAML outline files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := curriculum.Seed(cmd.Context(), c.app.Shelf, args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				c.printf("%s\n", id)
			}
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as a spreadsheet or YAML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if outPath == "" || outPath == "-" {
				return export.Write(c.out, c.app.Shelf.Snapshot(), format)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := export.Write(f, c.app.Shelf.Snapshot(), format); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatXLSX, "xlsx or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}
