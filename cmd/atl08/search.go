package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/atl08-extract/internal/cmr"
	"github.com/robert-malhotra/atl08-extract/internal/config"
	"github.com/robert-malhotra/atl08-extract/internal/stac"
	"github.com/robert-malhotra/atl08-extract/pkg/geojson"
)

type searchFlags struct {
	bbox        string
	temporal    string
	limit       int
	downloadDir string
}

func newSearchCmd(cfg *config.Config) *cobra.Command {
	var sf searchFlags

	cmd := &cobra.Command{
		Use:   "search --bbox W,S,E,N",
		Short: "Search CMR for ATL08 granules",
		Long: `Search CMR for granules of the configured ATL08 collection and print
them as a STAC ItemCollection. With --download-dir, each granule's data file
is downloaded unless it is already present.

Set ATL08_CMR_TOKEN to an Earthdata Login token for authenticated downloads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSearch(cmd, cfg, sf)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.bbox, "bbox", "", "bounding box west,south,east,north")
	f.StringVar(&sf.temporal, "temporal", "", "time range start/end (RFC 3339 or YYYY-MM-DD, '..' for an open end)")
	f.IntVar(&sf.limit, "limit", 100, "maximum number of granules (0 for all)")
	f.StringVar(&sf.downloadDir, "download-dir", "", "download the granules into this directory")
	f.StringVar(&cfg.CMR.ShortName, "short-name", cfg.CMR.ShortName, "collection short name")
	f.StringVar(&cfg.CMR.Version, "collection-version", cfg.CMR.Version, "collection version")
	_ = cmd.MarkFlagRequired("bbox")

	return cmd
}

func runSearch(cmd *cobra.Command, cfg *config.Config, sf searchFlags) error {
	ctx := cmd.Context()

	logger, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer closeLog()

	bbox, err := geojson.ParseBBox(sf.bbox)
	if err != nil {
		return fmt.Errorf("invalid --bbox: %w", err)
	}
	temporal, err := cmr.TemporalParam(sf.temporal)
	if err != nil {
		return fmt.Errorf("invalid --temporal: %w", err)
	}
	if sf.limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", sf.limit)
	}

	client := cmr.NewClient(cfg.CMR.BaseURL, cfg.CMR.Provider, cfg.CMR.Timeout).
		WithLogger(logger).
		WithToken(cfg.CMR.Token)

	params := &cmr.SearchParams{
		ShortName:   cfg.CMR.ShortName,
		Version:     cfg.CMR.Version,
		BoundingBox: geojson.FormatBBox(bbox),
		Temporal:    temporal,
	}
	if cfg.CMR.ConceptID != "" {
		params.ConceptID = []string{cfg.CMR.ConceptID}
	}

	result, err := client.SearchAll(ctx, params, sf.limit)
	if err != nil {
		return fmt.Errorf("granule search failed: %w", err)
	}

	collectionID := cfg.CMR.ShortName + "_" + cfg.CMR.Version
	items := make([]*stac.Item, 0, len(result.Granules))
	for i := range result.Granules {
		item, err := cmr.TranslateGranuleToItem(&result.Granules[i], collectionID)
		if err != nil {
			logger.WarnContext(ctx, "skipping granule",
				slog.String("granule", result.Granules[i].GranuleUR),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}

	ic := stac.NewItemCollection(items)
	ic.SetMatched(result.Hits)
	ic.AddLink("via", client.GranulesURL(params), "application/vnd.nasa.cmr.umm_results+json")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(ic); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if sf.downloadDir == "" {
		return nil
	}

	var downloaded, skipped int
	for i := range result.Granules {
		_, wasSkipped, err := client.Download(ctx, &result.Granules[i], sf.downloadDir)
		if err != nil {
			return err
		}
		if wasSkipped {
			skipped++
		} else {
			downloaded++
		}
	}
	logger.InfoContext(ctx, "downloads finished",
		slog.String("dir", sf.downloadDir),
		slog.Int("downloaded", downloaded),
		slog.Int("skipped", skipped),
	)
	return nil
}
