package export

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/storage"
)

// Uploader renders a report to CSV and ships both files to object storage.
type Uploader struct {
	store storage.ObjectStorage
}

func NewUploader(store storage.ObjectStorage) *Uploader {
	return &Uploader{store: store}
}

// Upload writes the variant and summary CSVs and returns their object keys.
func (u *Uploader) Upload(ctx context.Context, rep *domain.Report, params domain.ReportParams) (variantKey, summaryKey string, err error) {
	variant, err := VariantCSV(rep)
	if err != nil {
		return "", "", err
	}
	summary, err := SummaryCSV(rep)
	if err != nil {
		return "", "", err
	}

	variantKey = ObjectKey(rep, params, "variants")
	summaryKey = ObjectKey(rep, params, "summary")

	if err := u.store.UploadObject(ctx, variantKey, variant); err != nil {
		return "", "", err
	}
	if err := u.store.UploadObject(ctx, summaryKey, summary); err != nil {
		return "", "", err
	}

	log.Info().
		Str("variant_key", variantKey).
		Str("summary_key", summaryKey).
		Int("rows", len(rep.Rows)).
		Msg("export: report uploaded")

	return variantKey, summaryKey, nil
}
