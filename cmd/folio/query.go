package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-folio"
)

const dateLayout = "2006-01-02"

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printDocuments(w io.Writer, docs []*folio.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}
	for _, doc := range docs {
		date := "          "
		if !doc.PublishedAt().IsZero() {
			date = doc.PublishedAt().Format(dateLayout)
		}
		fmt.Fprintf(w, "%s  %-40s  %s\n", date, doc.Permalink(), doc.Title())
	}
}

type listOptions struct {
	page   int
	size   int
	pages  bool
	tag    string
	asJSON bool
}

func listCmd(global *globalOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts newest first, or pages and tag members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := global.newSite()
			if err != nil {
				return err
			}
			if _, err := site.Build(cmd.Context()); err != nil {
				return err
			}
			view := site.Listing()
			out := cmd.OutOrStdout()

			var docs []*folio.Document
			switch {
			case opts.pages:
				docs = view.Chronological(folio.KindPage)
			case strings.TrimSpace(opts.tag) != "":
				docs = view.ByTag(opts.tag)
			default:
				page, err := view.Page(opts.page, opts.size)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return writeJSON(out, page)
				}
				printDocuments(out, page.Items)
				fmt.Fprintf(out, "page %d of %d (%d posts)\n", page.Number, page.TotalPages, page.TotalItems)
				return nil
			}
			if opts.asJSON {
				return writeJSON(out, docs)
			}
			printDocuments(out, docs)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.size, "size", 10, "Posts per page")
	cmd.Flags().BoolVar(&opts.pages, "pages", false, "List pages instead of posts")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "List documents carrying this tag")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output as JSON")
	return cmd
}

func tagsCmd(global *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with their document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := global.newSite()
			if err != nil {
				return err
			}
			snap, err := site.Build(cmd.Context())
			if err != nil {
				return err
			}
			all := snap.Tags().All()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, all)
			}
			if len(all) == 0 {
				fmt.Fprintln(out, "No tags found.")
				return nil
			}
			for _, tag := range all {
				fmt.Fprintf(out, "%-24s %4d  %s\n", tag.Name, tag.Count(), tag.Slug)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func showCmd(global *globalOptions) *cobra.Command {
	var (
		asJSON bool
		body   bool
	)

	cmd := &cobra.Command{
		Use:   "show [id-or-permalink]",
		Short: "Show one document by id or permalink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := global.newSite()
			if err != nil {
				return err
			}
			snap, err := site.Build(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.TrimSpace(args[0])
			doc, ok := snap.Document(key)
			if !ok {
				doc, ok = snap.ByPermalink(key)
			}
			if !ok {
				return fmt.Errorf("document %q not found", key)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, doc)
			}
			fmt.Fprintf(out, "ID:        %s\n", doc.ID())
			fmt.Fprintf(out, "Title:     %s\n", doc.Title())
			fmt.Fprintf(out, "Kind:      %s\n", doc.Kind())
			fmt.Fprintf(out, "Permalink: %s\n", doc.Permalink())
			fmt.Fprintf(out, "Source:    %s\n", doc.SourcePath())
			if !doc.PublishedAt().IsZero() {
				fmt.Fprintf(out, "Published: %s\n", doc.PublishedAt().Format(dateLayout))
			}
			if tags := doc.Tags(); len(tags) > 0 {
				fmt.Fprintf(out, "Tags:      %s\n", strings.Join(tags, ", "))
			}
			newer, older := site.Listing().Adjacent(doc.ID())
			if newer != nil {
				fmt.Fprintf(out, "Newer:     %s\n", newer.Permalink())
			}
			if older != nil {
				fmt.Fprintf(out, "Older:     %s\n", older.Permalink())
			}
			fmt.Fprintln(out)
			if body {
				fmt.Fprintln(out, doc.Body())
				return nil
			}
			fmt.Fprintln(out, doc.Excerpt())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&body, "body", false, "Print the full body instead of the excerpt")
	return cmd
}
