package storage

import "positionLens/internal/model"

// Storage defines a sink for fee reports.
type Storage interface {
	PutReports(reports []model.FeeReport) error
}
