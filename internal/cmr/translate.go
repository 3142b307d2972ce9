package cmr

import (
	"fmt"
	"path"
	"strings"
	"time"

	gostac "github.com/planetlabs/go-stac"
	"github.com/robert-malhotra/atl08-extract/internal/stac"
	"github.com/robert-malhotra/atl08-extract/pkg/geojson"
)

// TranslateGranuleToItem converts a CMR UMM-G granule to a STAC Item.
func TranslateGranuleToItem(granule *UMMGranule, collectionID string) (*stac.Item, error) {
	itemID := granule.GranuleUR
	if itemID == "" {
		return nil, fmt.Errorf("granule has no GranuleUR")
	}

	item := stac.NewItem(itemID, collectionID)

	geom, err := granule.GetGeometry()
	if err != nil {
		return nil, fmt.Errorf("failed to get geometry: %w", err)
	}
	if geom != nil {
		item.Geometry = geom
		if bbox, err := geojson.ComputeBBox(geom); err == nil {
			item.Bbox = bbox
		}
	}

	startTime, _ := granule.GetStartTime()
	endTime, _ := granule.GetEndTime()

	if !startTime.IsZero() {
		item.Properties["datetime"] = nil
		item.Properties["start_datetime"] = startTime.Format(time.RFC3339)
		if !endTime.IsZero() {
			item.Properties["end_datetime"] = endTime.Format(time.RFC3339)
		} else {
			item.Properties["end_datetime"] = startTime.Format(time.RFC3339)
		}
	} else if !endTime.IsZero() {
		item.Properties["datetime"] = endTime.Format(time.RFC3339)
	}

	if len(granule.Platforms) > 0 {
		platform := granule.Platforms[0]
		item.Properties["platform"] = strings.ToLower(platform.ShortName)
		item.Properties["constellation"] = "icesat-2"

		if len(platform.Instruments) > 0 {
			instruments := make([]string, len(platform.Instruments))
			for i, inst := range platform.Instruments {
				instruments[i] = strings.ToLower(inst.ShortName)
			}
			item.Properties["instruments"] = instruments
		}
	}

	setTrackProperties(granule, item)
	setProcessingProperties(granule, item)
	addAssets(granule, item)

	return item, nil
}

// setTrackProperties sets satellite extension properties and the reference
// ground track.
func setTrackProperties(granule *UMMGranule, item *stac.Item) {
	if len(granule.OrbitCalculatedSpatialDomains) > 0 {
		orbit := granule.OrbitCalculatedSpatialDomains[0]
		switch {
		case orbit.OrbitNumber != nil:
			item.Properties["sat:absolute_orbit"] = *orbit.OrbitNumber
		case orbit.BeginOrbitNumber != nil:
			item.Properties["sat:absolute_orbit"] = *orbit.BeginOrbitNumber
		}
	}

	if granule.SpatialExtent == nil || granule.SpatialExtent.HorizontalSpatialDomain == nil {
		return
	}
	track := granule.SpatialExtent.HorizontalSpatialDomain.Track
	if track == nil {
		return
	}
	item.Properties["icesat2:cycle"] = track.Cycle
	if len(track.Passes) > 0 {
		item.Properties["icesat2:rgt"] = track.Passes[0].Pass
	}
}

// setProcessingProperties sets processing extension properties.
func setProcessingProperties(granule *UMMGranule, item *stac.Item) {
	item.Properties["processing:level"] = "L3A"

	if granule.DataGranule != nil && granule.DataGranule.ProductionDateTime != "" {
		if t, err := parseTime(granule.DataGranule.ProductionDateTime); err == nil {
			item.Properties["processing:datetime"] = t.Format(time.RFC3339)
		}
	}
	if v := granule.CollectionReference.Version; v != "" {
		item.Properties["processing:version"] = v
	}

	item.Properties["processing:facility"] = "NSIDC DAAC"
}

// addAssets adds assets to the STAC item.
func addAssets(granule *UMMGranule, item *stac.Item) {
	if dataURL := granule.GetDataURL(); dataURL != "" {
		item.Assets["data"] = &gostac.Asset{
			Href:  dataURL,
			Title: path.Base(dataURL),
			Type:  "application/x-hdf5",
			Roles: []string{"data"},
		}
	}

	if browseURL := granule.GetBrowseURL(); browseURL != "" {
		item.Assets["thumbnail"] = &gostac.Asset{
			Href:  browseURL,
			Title: "Thumbnail",
			Type:  "image/png",
			Roles: []string{"thumbnail"},
		}
	}

	for _, relURL := range granule.RelatedUrls {
		if relURL.Type == "GET DATA" || relURL.Type == "GET RELATED VISUALIZATION" {
			continue
		}

		key := strings.ToLower(strings.ReplaceAll(relURL.Type, " ", "_"))
		if _, exists := item.Assets[key]; exists {
			continue
		}

		mimeType := relURL.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		item.Assets[key] = &gostac.Asset{
			Href:        relURL.URL,
			Title:       relURL.Description,
			Type:        mimeType,
			Description: relURL.Description,
		}
	}
}
