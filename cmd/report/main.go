package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/export"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/loader"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/report"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/repository"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/repository/postgres"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/reshape"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/source"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/storage"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Live inventory database connection string",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	url := c.String("db-url")
	if url == "" {
		return nil
	}

	db, err := postgres.NewDBFromURL(url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "bizloss",
		Usage: "Compute and export business-loss reports from local source files",
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "Compute a report from local CSV/XLSX files and write the export CSVs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "inventory",
						Usage:    "Wide inventory time-series file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "rates",
						Usage: "DRR/ASP reference file",
					},
					&cli.StringFlag{
						Name:  "products",
						Usage: "Products status file",
					},
					&cli.StringFlag{
						Name:  "b2b",
						Usage: "B2B warehouse snapshot file",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Range start (YYYY-MM-DD, inclusive)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Range end (YYYY-MM-DD, inclusive)",
					},
					&cli.Float64Flag{
						Name:  "default-drr",
						Usage: "Daily run rate for unmatched variants",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "default-asp",
						Usage: "Average selling price for unmatched variants",
						Value: 250,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output directory for the export CSVs",
						Value: "./out",
					},
					newDBURLFlag(false),
				},
				Before: initDB,
				After:  closeDB,
				Action: runCompute,
			},
			{
				Name:  "seed-live-inventory",
				Usage: "Load a live inventory CSV export into the database table",
				Flags: []cli.Flag{
					newDBURLFlag(true),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Live inventory CSV file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "truncate",
						Usage: "Truncate the table before loading",
						Value: true,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSeedLiveInventory,
			},
			{
				Name:  "pull-exports",
				Usage: "Download previously exported report CSVs from object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "endpoint",
						Usage:    "Object storage endpoint",
						Required: true,
						EnvVars:  []string{"EXPORT_ENDPOINT"},
					},
					&cli.StringFlag{
						Name:     "access-key",
						Usage:    "Object storage access key",
						Required: true,
						EnvVars:  []string{"EXPORT_ACCESS_KEY"},
					},
					&cli.StringFlag{
						Name:     "secret-key",
						Usage:    "Object storage secret key",
						Required: true,
						EnvVars:  []string{"EXPORT_SECRET_KEY"},
					},
					&cli.StringFlag{
						Name:     "bucket",
						Usage:    "Object storage bucket",
						Required: true,
						EnvVars:  []string{"EXPORT_BUCKET"},
					},
					&cli.StringFlag{
						Name:    "region",
						Usage:   "Object storage region",
						EnvVars: []string{"EXPORT_REGION"},
					},
					&cli.BoolFlag{
						Name:    "use-ssl",
						Usage:   "Use HTTPS for the storage endpoint",
						Value:   true,
						EnvVars: []string{"EXPORT_USE_SSL"},
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix to pull",
						Value: "reports/",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Local directory for the downloaded files",
						Value: "./data/exports",
					},
				},
				Action: runPullExports,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCompute(c *cli.Context) error {
	params := domain.ReportParams{
		DefaultDRR: c.Float64("default-drr"),
		DefaultASP: c.Float64("default-asp"),
	}
	if from := c.String("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		params.From = t
	}
	if to := c.String("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		params.To = t
	}

	records, err := source.ReadFile(c.String("inventory"))
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	observations, err := reshape.Reshape(records)
	if err != nil {
		return fmt.Errorf("reshape inventory: %w", err)
	}

	inputs := report.Inputs{Observations: observations}

	if path := c.String("rates"); path != "" {
		records, err := source.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read rates: %w", err)
		}
		if inputs.Rates, err = loader.LoadRates(records); err != nil {
			return fmt.Errorf("load rates: %w", err)
		}
	}
	if path := c.String("products"); path != "" {
		records, err := source.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		if inputs.Products, err = loader.LoadProducts(records); err != nil {
			return fmt.Errorf("load products: %w", err)
		}
	}
	if path := c.String("b2b"); path != "" {
		records, err := source.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read b2b snapshot: %w", err)
		}
		if inputs.B2B, err = loader.LoadB2BSnapshot(records); err != nil {
			return fmt.Errorf("load b2b snapshot: %w", err)
		}
	}
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		raw, err := repository.NewLiveInventoryRepository(db).FetchBlockedRows(c.Context)
		if err != nil {
			return fmt.Errorf("fetch live inventory: %w", err)
		}
		inputs.Blocked = loader.CleanBlocked(raw)
	}

	engine := report.NewEngine(report.Options{IncludeZeroDRR: true})
	rep := engine.Compute(inputs, params)
	if rep.Reason != "" {
		return fmt.Errorf("report not computable: %s", rep.Reason)
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	variant, err := export.VariantCSV(rep)
	if err != nil {
		return err
	}
	summary, err := export.SummaryCSV(rep)
	if err != nil {
		return err
	}

	variantPath := filepath.Join(outDir, "business_loss_variants.csv")
	summaryPath := filepath.Join(outDir, "business_loss_summary.csv")
	if err := os.WriteFile(variantPath, variant, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(summaryPath, summary, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d rows) and %s\n", variantPath, len(rep.Rows), summaryPath)
	fmt.Printf("total business loss: %.2f over %d days\n", rep.Summary.TotalBusinessLoss, rep.TotalDays)
	return nil
}

func runSeedLiveInventory(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey).(*postgres.DB)
	if !ok || db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	records, err := source.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("read live inventory file: %w", err)
	}
	if len(records) < 2 {
		return fmt.Errorf("live inventory file has no data rows")
	}

	cols := indexColumns(records[0])
	required := []string{"company_name", "sku", "quantity", "locked", "greater_than_eighty", "status"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("live inventory file missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rows := make([]repository.LiveInventoryRow, 0, len(records)-1)
	for _, record := range records[1:] {
		quantity, _ := strconv.ParseFloat(strings.ReplaceAll(cell(record, "quantity"), ",", ""), 64)
		rows = append(rows, repository.LiveInventoryRow{
			CompanyName: cell(record, "company_name"),
			ProductName: cell(record, "product_name"),
			SKU:         cell(record, "sku"),
			Quantity:    quantity,
			Locked:      parseBool(cell(record, "locked")),
			Eligible:    parseBool(cell(record, "greater_than_eighty")),
			Status:      strings.ToLower(cell(record, "status")),
		})
	}

	repo := repository.NewLiveInventoryRepository(db)
	inserted, err := repo.ReplaceRows(c.Context, rows, c.Bool("truncate"))
	if err != nil {
		return err
	}

	fmt.Printf("loaded %d live inventory rows\n", inserted)
	return nil
}

func runPullExports(c *cli.Context) error {
	client, err := storage.NewS3Client(config.ExportConfig{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Bucket:    c.String("bucket"),
		Region:    c.String("region"),
		UseSSL:    c.Bool("use-ssl"),
	})
	if err != nil {
		return err
	}

	paths, err := export.NewDownloader(client).Pull(c.Context, c.String("prefix"), c.String("out"))
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Println(path)
	}
	fmt.Printf("pulled %d export files\n", len(paths))
	return nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "t", "yes", "y", "1":
		return true
	default:
		return false
	}
}
