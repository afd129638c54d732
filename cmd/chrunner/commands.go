package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/analytics-infra/chrunner/internal/config"
	"github.com/analytics-infra/chrunner/internal/dates"
	"github.com/analytics-infra/chrunner/internal/drive"
	"github.com/analytics-infra/chrunner/internal/dune"
	"github.com/analytics-infra/chrunner/internal/ingest"
	"github.com/analytics-infra/chrunner/internal/logging"
	"github.com/analytics-infra/chrunner/internal/objstore"
)

// newQueryCommand executes a comma-separated list of SQL files in order,
// stopping at the first failure.
func newQueryCommand(cfg *config.Config) *cobra.Command {
	var queries string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute SQL files in order",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := logging.ForRun("query")

			if queries == "" {
				queries = strings.TrimSpace(os.Getenv("CH_QUERIES"))
			}
			if queries == "" {
				return fmt.Errorf("no query files given; use --queries or set CH_QUERIES")
			}

			var paths []string
			for _, p := range strings.Split(queries, ",") {
				if p = strings.TrimSpace(p); p != "" {
					paths = append(paths, p)
				}
			}

			vars := config.QueryVariables(logger)
			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			return ingest.ExecuteQueries(ctx, store, paths, vars, logger)
		},
	}

	cmd.Flags().StringVar(&queries, "queries", "", "comma-separated list of SQL files to execute")
	return cmd
}

// newTabularCommand runs the SQL-template-driven ingestor: the rendered
// insert statement pulls data through the destination's own table functions.
func newTabularCommand(cfg *config.Config) *cobra.Command {
	var (
		createSQL   string
		insertSQL   string
		optimizeSQL string
		skipCreate  bool
	)

	cmd := &cobra.Command{
		Use:     "tabular",
		Aliases: []string{"csv"},
		Short:   "Ingest via SQL templates (url/s3 table functions)",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := logging.ForRun("tabular")

			vars := config.QueryVariables(logger)
			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ing := ingest.NewTabularPathIngestor(store, vars, createSQL, insertSQL, optimizeSQL, logger)
			return ing.Ingest(ctx, ingest.Options{
				SkipTableCreation: skipCreate || cfg.Ingest.SkipTableCreation,
			})
		},
	}

	cmd.Flags().StringVar(&createSQL, "create-table-sql", "", "path to table creation SQL file")
	cmd.Flags().StringVar(&insertSQL, "insert-sql", "", "path to data insertion SQL file")
	cmd.Flags().StringVar(&optimizeSQL, "optimize-sql", "", "path to table optimization SQL file")
	cmd.Flags().BoolVar(&skipCreate, "skip-table-creation", false, "skip the table creation step")
	return cmd
}

// newObjstoreCommand runs the object-store ingestor over files selected by
// the configured mode.
func newObjstoreCommand(cfg *config.Config) *cobra.Command {
	var (
		tableName  string
		s3Path     string
		mode       string
		date       string
		createSQL  string
		skipCreate bool
		optimize   bool
	)

	cmd := &cobra.Command{
		Use:     "objstore",
		Aliases: []string{"parquet"},
		Short:   "Ingest source files from the object store",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := logging.ForRun("objstore")

			strategy, err := ingest.ParseStrategy(mode)
			if err != nil {
				return err
			}
			if strategy == ingest.StrategyForPeriod {
				if date == "" {
					date = dates.Yesterday()
					logger.Info("no date given, defaulting to yesterday", "date", date)
				}
				if !dates.IsValid(date) {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
				}
			}

			vars := config.QueryVariables(logger)
			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			objects, err := objstore.New(cfg.ObjectStore, logger)
			if err != nil {
				return err
			}

			pipeline := ingest.NewPipeline(store, vars, cfg.Ingest.RowCap, logger)
			selector := ingest.NewSelector(objects, cfg.ObjectStore.Bucket, logger)
			ing := ingest.NewObjectStoreIngestor(pipeline, selector, objects, cfg.ObjectStore.Bucket, s3Path, tableName, createSQL)

			return ing.Ingest(ctx, ingest.Options{
				SkipTableCreation: skipCreate || cfg.Ingest.SkipTableCreation,
				Strategy:          strategy,
				Period:            date,
				Optimize:          optimize || cfg.Ingest.Optimize,
			})
		},
	}

	cmd.Flags().StringVar(&tableName, "table-name", "", "destination table name")
	cmd.Flags().StringVar(&s3Path, "s3-path", "", "object path pattern, e.g. data/{{DATE}}.parquet")
	cmd.Flags().StringVar(&mode, "mode", "latest", "file selection mode: latest, date, or all")
	cmd.Flags().StringVar(&date, "date", "", "date for 'date' mode (YYYY-MM-DD, default yesterday)")
	cmd.Flags().StringVar(&createSQL, "create-table-sql", "", "path to table creation SQL file")
	cmd.Flags().BoolVar(&skipCreate, "skip-table-creation", false, "skip the table creation step")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "run OPTIMIZE TABLE FINAL after ingestion")
	return cmd
}

// newDownloadCommand runs the remote file-download ingestor.
func newDownloadCommand(cfg *config.Config) *cobra.Command {
	var (
		fileID     string
		tableName  string
		createSQL  string
		skipCreate bool
		optimize   bool
	)

	cmd := &cobra.Command{
		Use:     "download",
		Aliases: []string{"gdrive"},
		Short:   "Ingest a file fetched from the download API",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := logging.ForRun("download")

			vars := config.QueryVariables(logger)
			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			files := drive.New(cfg.Drive, logger)
			pipeline := ingest.NewPipeline(store, vars, cfg.Ingest.RowCap, logger)
			ing := ingest.NewDownloadIngestor(pipeline, files, fileID, tableName, createSQL)

			return ing.Ingest(ctx, ingest.Options{
				SkipTableCreation: skipCreate || cfg.Ingest.SkipTableCreation,
				Optimize:          optimize || cfg.Ingest.Optimize,
			})
		},
	}

	cmd.Flags().StringVar(&fileID, "file-id", "", "remote file identifier")
	cmd.Flags().StringVar(&tableName, "table-name", "", "destination table name")
	cmd.Flags().StringVar(&createSQL, "create-table-sql", "", "path to table creation SQL file")
	cmd.Flags().BoolVar(&skipCreate, "skip-table-creation", false, "skip the table creation step")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "run OPTIMIZE TABLE FINAL after ingestion")
	return cmd
}

// newDuneCommand executes a remote parameterized query, waits for it to
// finish, then ingests its result by execution ID through the SQL-template
// ingestor. The execution ID is published to the templates as
// {{DUNE_EXECUTION_ID}}.
func newDuneCommand(cfg *config.Config) *cobra.Command {
	var (
		datasetDir    string
		start         string
		end           string
		createSQL     string
		insertSQL     string
		queryID       string
		paramStartKey string
		paramEndKey   string
	)

	cmd := &cobra.Command{
		Use:   "dune",
		Short: "Execute a remote query and ingest its result",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			logger := logging.ForRun("dune")

			if datasetDir == "" {
				return fmt.Errorf("--dataset-dir is required")
			}
			dataset, err := dune.LoadDatasetConfig(datasetDir)
			if err != nil {
				return err
			}
			if queryID != "" {
				dataset.QueryID = queryID
			}
			if paramStartKey != "" {
				dataset.ParamStartKey = paramStartKey
			}
			if paramEndKey != "" {
				dataset.ParamEndKey = paramEndKey
			}

			if start == "" {
				start = dates.Yesterday()
			}
			if end == "" {
				end = start
			}

			client, err := dune.New(cfg.Dune, logger)
			if err != nil {
				return err
			}

			// Parameter values pass through as-is so they match whatever
			// casts the remote SQL applies.
			params := map[string]string{
				dataset.ParamStartKey: start,
				dataset.ParamEndKey:   end,
			}
			logger.Info("executing remote query", "query_id", dataset.QueryID, "start", start, "end", end)

			execID, err := client.Execute(ctx, dataset.QueryID, params)
			if err != nil {
				return err
			}
			if err := client.Wait(ctx, execID); err != nil {
				return err
			}

			vars := config.QueryVariables(logger)
			vars["DUNE_EXECUTION_ID"] = execID

			if createSQL == "" {
				createSQL = filepath.Join(datasetDir, "create_table.sql")
			}
			if insertSQL == "" {
				insertSQL = filepath.Join(datasetDir, "insert_from_execution.sql")
			}

			store, err := connectStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			logger.Info("ingesting execution result", "execution_id", execID)
			ing := ingest.NewTabularPathIngestor(store, vars, createSQL, insertSQL, "", logger)
			return ing.Ingest(ctx, ingest.Options{SkipTableCreation: true})
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset-dir", "", "dataset directory holding config.yml and SQL files")
	cmd.Flags().StringVar(&start, "start", "", "start parameter value (default yesterday)")
	cmd.Flags().StringVar(&end, "end", "", "end parameter value (default same as start)")
	cmd.Flags().StringVar(&createSQL, "create-table-sql", "", "override <dataset-dir>/create_table.sql")
	cmd.Flags().StringVar(&insertSQL, "insert-sql", "", "override <dataset-dir>/insert_from_execution.sql")
	cmd.Flags().StringVar(&queryID, "query-id", "", "override the dataset's query id")
	cmd.Flags().StringVar(&paramStartKey, "param-start-key", "", "override the dataset's start parameter name")
	cmd.Flags().StringVar(&paramEndKey, "param-end-key", "", "override the dataset's end parameter name")
	return cmd
}
