package models

import "time"

// WorkloadStatus classifies an acute:chronic workload ratio.
type WorkloadStatus string

const (
	WorkloadUndertraining WorkloadStatus = "Undertraining"
	WorkloadOptimal       WorkloadStatus = "Optimal"
	WorkloadOverreaching  WorkloadStatus = "Overreaching"
	WorkloadDanger        WorkloadStatus = "Danger"
	WorkloadInactive      WorkloadStatus = "Inactive"
)

// WorkloadAssessment is the derived ACWR snapshot for an athlete.
type WorkloadAssessment struct {
	Ratio       float64        `json:"ratio"`
	AcuteLoad   int            `json:"acute_load"`
	ChronicLoad int            `json:"chronic_load"`
	Status      WorkloadStatus `json:"status"`
}

// EnergySource names the estimation path that produced a report.
type EnergySource string

const (
	SourceWattmeter     EnergySource = "Wattmeter"
	SourceMETsEstimator EnergySource = "METsEstimator"
)

// BioenergeticReport is the energy, macro and hydration estimate for a session.
type BioenergeticReport struct {
	KcalTotal int          `json:"kcal_total"`
	CarbsG    int          `json:"carbs_g"`
	ProteinG  int          `json:"protein_g"`
	WaterMl   int          `json:"water_ml"`
	Source    EnergySource `json:"source"`
}

// Sweep run statuses.
const (
	SweepRunning = "running"
	SweepSuccess = "success"
	SweepPartial = "partial"
	SweepError   = "error"
)

// SweepRun is the journal entry of one workload sweep.
type SweepRun struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Status       string    `json:"status"`
	Athletes     int       `json:"athletes"`
	Failed       int       `json:"failed"`
	Emitted      int       `json:"emitted"`
	Pruned       int64     `json:"pruned"`
	DurationMs   *int      `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message"`
}
