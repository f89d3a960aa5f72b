package cli

import "github.com/finsight/marketcal/config"

type Handler struct {
	Migration *MigrateHandler
	Ingest    *IngestHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
		Ingest:    newIngestHandler(c),
	}
}
