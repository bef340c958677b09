package server

import (
	"github.com/Daskott/haven/server/sos"
	"github.com/Daskott/haven/server/work"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "alerts_created_total",
		Help:      "Number of SOS alerts created.",
	})

	alertsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "alerts_cancelled_total",
		Help:      "Number of SOS alerts cancelled.",
	})

	smsDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "sms_deliveries_total",
		Help:      "SMS messages sent to emergency contacts, by status.",
	}, []string{"status"})

	pushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "push_deliveries_total",
		Help:      "Push notifications sent to user devices, by result.",
	}, []string{"result"})
)

// recordAlert counts every saved alert, including ones whose notifications
// were cut short by an error
func recordAlert(result *sos.AlertResult) {
	if result == nil || !result.Saved {
		return
	}
	alertsCreated.Inc()

	for _, smsResult := range result.SmsResults {
		smsDeliveries.WithLabelValues(smsResult.Status).Inc()
	}

	pushDeliveries.WithLabelValues("success").Add(float64(result.PushResults.SuccessCount))
	pushDeliveries.WithLabelValues("failure").Add(float64(result.PushResults.FailureCount))
	if result.PushResults.Error != "" {
		pushDeliveries.WithLabelValues("error").Inc()
	}
}

func registerWorkerPoolMetrics(registerer prometheus.Registerer, workerPool *work.WorkerPoolAdapter) {
	factory := promauto.With(registerer)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "haven",
		Name:      "dead_jobs",
		Help:      "Background jobs that exhausted their retries.",
	}, func() float64 { return float64(workerPool.DeadJobs()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "haven",
		Name:      "periodic_jobs",
		Help:      "Scheduled background jobs.",
	}, func() float64 { return float64(workerPool.PeriodicJobs()) })
}
