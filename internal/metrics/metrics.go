package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTP Lifecycle Metrics
	OTPSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_sent_total",
		Help: "Total number of OTP send attempts.",
	}, []string{"status"}) // status: "success" or "failed"
	OTPVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verified_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"status"}) // status: "success", "invalid" or "failed"
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of users created on first verification.",
	})

	// Sync Metrics
	SyncedRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_synced_records_total",
		Help: "Total number of records upserted by sync batches.",
	}, []string{"kind"}) // kind: "water_log" or "reminder"
)
