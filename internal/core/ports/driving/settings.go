package driving

import "github.com/custodia-labs/manualqa/internal/core/domain"

// SettingsService builds the typed application settings from configuration.
type SettingsService interface {
	// Get returns settings with defaults applied and credentials
	// taken from the environment.
	Get() (*domain.AppSettings, error)

	// Save persists the non-secret settings.
	Save(settings *domain.AppSettings) error

	// Validate checks settings structurally before any work starts.
	Validate(settings *domain.AppSettings) error

	// Require reports missing credentials for the services an operation needs.
	Require(settings *domain.AppSettings, needs domain.Needs) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetPipelineConfig returns the processor order and per-processor config.
	GetPipelineConfig() domain.PipelineConfig
}
