package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	archiveExport bool
	fromArchive   bool
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Writes every collection to an export document",
	Long: `export writes the export document to file, or to
catalyst-admin-data-<date>.json when no file is given ("-" for stdout).
With --archive the document is also kept in the configured blob store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeDB, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeDB()

		now := st.Now()
		snap, err := st.Export(ctx)
		if err != nil {
			return err
		}
		doc, err := store.MarshalExport(snap)
		if err != nil {
			return err
		}

		if archiveExport {
			blobs, err := blob.Open(ctx, appConfig.Blob)
			if err != nil {
				return fmt.Errorf("open export archive: %w", err)
			}
			info, err := blob.Archive(ctx, blobs, doc, now)
			if err != nil {
				return err
			}
			log.Infof("export archived as %s", info.Key)
		}

		file := content.ExportFileName(now)
		if len(args) == 1 {
			file = args[0]
		}
		if file == "-" {
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		}
		if err := os.WriteFile(file, doc, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		log.Infof("exported to %s", file)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replaces collections with the ones in an export document",
	Long: `import reads an export document from file. The document must carry
events and projects; collections it leaves out keep their content.
With --from-archive, file names a document in the blob store, as listed
by GET /api/exports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, err := readImport(ctx, args[0])
		if err != nil {
			return err
		}

		st, closeDB, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := st.Import(ctx, doc); err != nil {
			return err
		}
		log.Infof("imported %s", args[0])
		return nil
	},
}

func readImport(ctx context.Context, name string) ([]byte, error) {
	if !fromArchive {
		doc, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read import: %w", err)
		}
		return doc, nil
	}
	blobs, err := blob.Open(ctx, appConfig.Blob)
	if err != nil {
		return nil, fmt.Errorf("open export archive: %w", err)
	}
	return blob.ReadArchive(ctx, blobs, blob.ArchivePrefix+name)
}

var clearCmd = &cobra.Command{
	Use:       "clear [collection]",
	Short:     "Empties one collection, or all of them",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: content.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeDB, err := openStore(appConfig)
		if err != nil {
			return err
		}
		defer closeDB()

		if len(args) == 0 {
			if err := st.ClearAll(ctx); err != nil {
				return err
			}
			log.Info("all collections cleared")
			return nil
		}
		if err := clearCollection(ctx, st, args[0]); err != nil {
			return err
		}
		log.Infof("%s cleared", args[0])
		return nil
	},
}

func clearCollection(ctx context.Context, st *store.Store, name string) error {
	switch name {
	case content.NameEvents:
		return store.For(st, content.Events).Clear(ctx)
	case content.NamePastEvents:
		return store.For(st, content.PastEvents).Clear(ctx)
	case content.NameProjects:
		return store.For(st, content.Projects).Clear(ctx)
	case content.NameTestimonials:
		return store.For(st, content.Testimonials).Clear(ctx)
	case content.NameResources:
		return store.For(st, content.Resources).Clear(ctx)
	case content.NameBlog:
		return store.For(st, content.Blog).Clear(ctx)
	}
	return fmt.Errorf("%w: %s", content.ErrUnknownCollection, name)
}

func init() {
	exportCmd.Flags().BoolVar(&archiveExport, "archive", false, "also store the export in the blob store")
	importCmd.Flags().BoolVar(&fromArchive, "from-archive", false, "read the document from the blob store")
	rootCmd.AddCommand(exportCmd, importCmd, clearCmd)
}
