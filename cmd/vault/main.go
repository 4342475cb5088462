// Command vault is a terminal client for a running vault server.
//
//	vault [-api URL] upload [-folder ID] FILE...
//	vault [-api URL] status ID
//	vault [-api URL] ls [-folder ID]
//	vault [-api URL] rm ID
//	vault [-api URL] mkdir [-parent ID] NAME
//	vault [-api URL] tree
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"docvault/internal/client"
	"docvault/internal/clientstate"
	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/poller"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "vault:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("vault", flag.ContinueOnError)
	apiURL := fs.String("api", envOr("VAULT_API_URL", client.DefaultBaseURL), "server API base URL")
	verbose := fs.Bool("v", false, "log poll progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("missing command (upload, status, ls, rm, mkdir, tree)")
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := logging.New("debug", "console")
		if err != nil {
			return err
		}
		logger = l
	}

	c := client.New(*apiURL)
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "upload":
		return upload(ctx, c, rest, out, logger)
	case "status":
		return status(ctx, c, rest, out)
	case "ls":
		return list(ctx, c, rest, out)
	case "rm":
		return remove(ctx, c, rest, out)
	case "mkdir":
		return mkdir(ctx, c, rest, out)
	case "tree":
		return tree(ctx, c, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func upload(ctx context.Context, c *client.Client, args []string, out io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	folder := fs.String("folder", "", "destination folder id")
	interval := fs.Duration("interval", poller.DefaultInterval, "status poll interval")
	attempts := fs.Int("attempts", poller.DefaultMaxAttempts, "polls before giving up on a document")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("upload: no files given")
	}

	state := clientstate.New(nil)
	up := poller.NewUploader(c, state, poller.Config{Interval: *interval, MaxAttempts: *attempts}, logger)

	docs, err := up.UploadFiles(ctx, fs.Args(), *folder)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d file(s) uploaded, waiting for processing\n", len(docs))
	up.Wait()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	failed := 0
	for _, d := range docs {
		cur, _ := state.Document(d.ID)
		line := string(cur.ProcessingStatus)
		if u, ok := state.Upload(d.Name); ok && u.Status == clientstate.UploadFailed {
			line = "failed: " + u.Error
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, line)
	}
	w.Flush()
	if failed > 0 {
		return fmt.Errorf("%d document(s) did not complete", failed)
	}
	return nil
}

func status(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("status: expected one document id")
	}
	d, err := c.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "id:      %s\nname:    %s\ntype:    %s\nsize:    %d\nstatus:  %s\n", d.ID, d.OriginalName, d.Type, d.Size, d.ProcessingStatus)
	if d.FolderID != nil {
		fmt.Fprintf(out, "folder:  %s\n", *d.FolderID)
	}
	if d.Summary != nil {
		fmt.Fprintf(out, "\n%s\n", *d.Summary)
	}
	return nil
}

func list(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	folder := fs.String("folder", "", "only documents in this folder")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		docs []model.Document
		err  error
	)
	if *folder != "" {
		docs, err = c.ListFolderDocuments(ctx, *folder)
	} else {
		docs, err = c.ListDocuments(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.ProcessingStatus, d.UploadedAt.Format("2006-01-02 15:04"), d.OriginalName)
	}
	return w.Flush()
}

func remove(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("rm: expected one document id")
	}
	if err := c.DeleteDocument(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", args[0])
	return nil
}

func mkdir(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mkdir", flag.ContinueOnError)
	parent := fs.String("parent", "", "parent folder id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("mkdir: expected one folder name")
	}
	f, err := c.CreateFolder(ctx, fs.Arg(0), *parent)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\n", f.ID, f.Name)
	return nil
}

func tree(ctx context.Context, c *client.Client, out io.Writer) error {
	roots, err := c.FolderTree(ctx)
	if err != nil {
		return err
	}
	printTree(out, roots, 0)
	return nil
}

func printTree(out io.Writer, nodes []model.FolderNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(out, "%s%s  (%s)\n", strings.Repeat("  ", depth), n.Name, n.ID)
		printTree(out, n.Children, depth+1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
