package services

import (
	"context"
	"errors"
	"io"

	"github.com/paulcha3/group4-BDM-case/src/model"
	"github.com/paulcha3/group4-BDM-case/src/models"
)

var (
	ErrParsingFailed    = errors.New("failed to parse input file")
	ErrProcessingFailed = errors.New("failed to process dataset")
	ErrRunNotFound      = model.ErrRunNotFound
)

// CleanRequest describes one uploaded product table.
type CleanRequest struct {
	Source     io.Reader
	SourceName string
	// Format is "csv" or "jsonl"; empty means it is guessed from SourceName.
	Format  string
	Subject string
}

// CleanResult holds the stored run and the cleaned rows.
type CleanResult struct {
	Run     model.CleaningRun
	Dataset models.Dataset
}

// CleaningService runs the cleaning pipeline and serves stored runs.
type CleaningService interface {
	CleanDataset(ctx context.Context, req CleanRequest) (*CleanResult, error)
	GetRun(ctx context.Context, id string) (*model.CleaningRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.CleaningRun, error)
	GetRunDataset(ctx context.Context, id string) (models.Dataset, error)
}
