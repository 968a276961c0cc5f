package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/reliability"
	"github.com/aristath/frontier/internal/scheduler"
)

// JobRunner runs a job outside its schedule
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// BackupLister lists uploaded backups
type BackupLister interface {
	ListBackups(ctx context.Context) ([]reliability.BackupInfo, error)
}

// SystemHandlers handles system status and manual job triggers
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	runner    JobRunner
	syncJob   scheduler.Job
	backupJob scheduler.Job
	backups   BackupLister

	// Overridable in tests
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance. syncJob,
// backupJob and backups may be nil, the matching endpoints then report the
// feature as unavailable.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	runner JobRunner,
	syncJob scheduler.Job,
	backupJob scheduler.Job,
	backups BackupLister,
) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		runner:    runner,
		syncJob:   syncJob,
		backupJob: backupJob,
		backups:   backups,
	}
	h.systemStats = h.getSystemStats
	return h
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/backups", h.HandleListBackups)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Post("/sync/historical", h.HandleTriggerHistoricalSync)
	})
}

// DatabaseStatus describes one database in the status response
type DatabaseStatus struct {
	Name  string          `json:"name"`
	Path  string          `json:"path"`
	Stats *database.Stats `json:"stats,omitempty"`
	Error string          `json:"error,omitempty"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status      string           `json:"status"`
	CPUPercent  float64          `json:"cpu_percent"`
	RAMPercent  float64          `json:"ram_percent"`
	DataDir     string           `json:"data_dir"`
	Databases   []DatabaseStatus `json:"databases"`
	TotalBytes  int64            `json:"total_bytes"`
	LastChecked string           `json:"last_checked"`
}

// HandleSystemStatus returns process host load and database statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.systemStats()
	response := SystemStatusResponse{
		Status:      "healthy",
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
		DataDir:     h.dataDir,
		Databases:   make([]DatabaseStatus, 0, len(h.databases)),
		LastChecked: time.Now().Format(time.RFC3339),
	}

	for _, db := range h.databases {
		status := DatabaseStatus{Name: db.Name(), Path: db.Path()}
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			status.Error = err.Error()
			response.Status = "degraded"
		} else {
			status.Stats = stats
			response.TotalBytes += stats.SizeBytes + stats.WALSizeBytes
		}
		response.Databases = append(response.Databases, status)
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleListBackups lists the uploaded database backups, newest first
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Backups are not configured"})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list backups"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backups": backups,
		"count":   len(backups),
	})
}

// HandleTriggerHistoricalSync starts a provider price sync
// POST /api/system/sync/historical
func (h *SystemHandlers) HandleTriggerHistoricalSync(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, h.syncJob, "Historical sync")
}

// HandleTriggerBackup starts a database backup
// POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, h.backupJob, "Backup")
}

// trigger runs job in the background. Runs outlive the request, the result is
// only logged.
func (h *SystemHandlers) trigger(w http.ResponseWriter, job scheduler.Job, label string) {
	if job == nil || h.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": label + " job not registered",
		})
		return
	}

	h.log.Info().Str("job", job.Name()).Msg("Manual job triggered")
	go func() {
		if err := h.runner.RunNow(job); err != nil {
			h.log.Error().Err(err).Str("job", job.Name()).Msg("Manual job failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"message": label + " triggered successfully",
	})
}

// getSystemStats returns CPU and RAM usage percentages. CPU is sampled over
// 100ms to keep the endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
