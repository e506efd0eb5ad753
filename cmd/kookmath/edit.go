package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

func (c *cli) gradeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "grade", Short: "Manage grades"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.app.Shelf.AddGrade(cmd.Context(), shelf.NewGrade{Name: args[0]})
			if err != nil {
				return err
			}
			c.printf("%s\n", g.ID)
			return nil
		},
	})
	return cmd
}

func (c *cli) bookCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage books"}

	var req shelf.NewBook
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book to a grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.app.Shelf.AddBook(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.printf("%s\n", b.ID)
			return nil
		},
	}
	add.Flags().StringVar(&req.GradeID, "grade", "", "id of an existing grade")
	add.Flags().StringVar(&req.NewGradeName, "new-grade", "", "create a grade with this name")
	add.Flags().StringVar(&req.Title, "title", "", "book title")
	add.Flags().StringVar(&req.CoverColor, "color", "", "cover color as #rrggbb (random if empty)")
	add.Flags().StringVar(&req.CoverImage, "image", "", "cover image url")
	add.MarkFlagsMutuallyExclusive("grade", "new-grade")
	_ = add.MarkFlagRequired("title")

	rm := &cobra.Command{
		Use:   "rm <grade-id> <index>",
		Short: "Remove the book at index from a grade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := intArg(args, 1, "index")
			if err != nil {
				return err
			}
			return c.app.Shelf.RemoveBook(cmd.Context(), args[0], index)
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func (c *cli) chapterCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "chapter", Short: "Manage chapters"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <book-id> <name>",
		Short: "Append a chapter to a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := c.app.Shelf.AddChapter(cmd.Context(), shelf.NewChapter{BookID: args[0], Name: args[1]})
			if err != nil {
				return err
			}
			link, err := c.app.Shelf.ShareLink(args[0], index)
			if err != nil {
				return err
			}
			c.printf("%d\t%s\n", index, link)
			return nil
		},
	})
	return cmd
}

func (c *cli) videoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "video", Short: "Manage videos"}

	var add shelf.NewVideos
	addCmd := &cobra.Command{
		Use:   "add <book-id> <chapter> <problem-no>",
		Short: "Add one video, or a run of unlinked placeholders with --count",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := add
			req.BookID = args[0]
			var err error
			if req.Chapter, err = intArg(args, 1, "chapter"); err != nil {
				return err
			}
			if req.ProblemNo, err = intArg(args, 2, "problem-no"); err != nil {
				return err
			}
			added, err := c.app.Shelf.AddVideos(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, v := range added {
				c.printf("%d\t%s\n", v.ProblemNo, v.Title)
			}
			return nil
		},
	}
	addCmd.Flags().StringVar(&add.Title, "title", "", "video title (default \"<n>번 문제\")")
	addCmd.Flags().StringVar(&add.URL, "url", "", "video url")
	addCmd.Flags().IntVar(&add.Count, "count", 1, "number of consecutive placeholders; title and url are ignored when > 1")

	var edit shelf.VideoEdit
	editCmd := &cobra.Command{
		Use:   "edit <book-id> <chapter> <index> <problem-no>",
		Short: "Change the number, title and url of a video",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := edit
			req.BookID = args[0]
			var err error
			if req.Chapter, err = intArg(args, 1, "chapter"); err != nil {
				return err
			}
			if req.Index, err = intArg(args, 2, "index"); err != nil {
				return err
			}
			if req.ProblemNo, err = intArg(args, 3, "problem-no"); err != nil {
				return err
			}
			return c.app.Shelf.UpdateVideo(cmd.Context(), req)
		},
	}
	editCmd.Flags().StringVar(&edit.Title, "title", "", "video title (blank resets to the default)")
	editCmd.Flags().StringVar(&edit.URL, "url", "", "video url (blank unlinks)")

	cmd.AddCommand(addCmd, editCmd)
	return cmd
}

func (c *cli) linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <book-id> <chapter>",
		Short: "Print the share link of a chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			chapter, err := intArg(args, 1, "chapter")
			if err != nil {
				return err
			}
			link, err := c.app.Shelf.ShareLink(args[0], chapter)
			if err != nil {
				return err
			}
			c.printf("%s\n", link)
			return nil
		},
	}
}

func (c *cli) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <share-link>",
		Short: "Show which book and chapter a share link opens",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			link, ok := catalog.ParseShareLink(args[0])
			if !ok {
				return fmt.Errorf("%w: not a share link: %q", shelf.ErrInvalid, args[0])
			}
			b, err := c.app.Shelf.Book(link.BookID)
			if err != nil {
				return err
			}
			if !link.HasChapter {
				c.printf("%s\n", b.Title)
				return nil
			}
			ch, ok := b.Chapter(link.Chapter)
			if !ok {
				return fmt.Errorf("chapter %d of %q: %w", link.Chapter, b.Title, shelf.ErrNotFound)
			}
			c.printf("%s\t%s\n", b.Title, ch.Name)
			return nil
		},
	}
}
