package mappers

import (
	"github.com/kubev2v/stock-importer/internal/ingest"
	"github.com/kubev2v/stock-importer/internal/store/model"
)

func ItemsFromRecords(records []ingest.Record) []model.Item {
	items := make([]model.Item, 0, len(records))
	for _, record := range records {
		items = append(items, model.Item{
			ExternalID: record.ExternalID,
			Name:       record.Name,
			Quantity:   record.Quantity,
			ExpiryDate: record.Expiry,
		})
	}
	return items
}
