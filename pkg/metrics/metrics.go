package metrics

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Виды записей истории (метка kind)
const (
	HistoryKindCreated = "created"
	HistoryKindStatus  = "status"
	HistoryKindFields  = "fields"
	HistoryKindNote    = "note"
)

// Metrics держит счётчики процесса. Регистрируется в переданном Registerer,
// глобальный реестр не используется.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	HistoryEntries    *prometheus.CounterVec
	EquipmentDeleted  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "status_transitions_total",
			Help:      "Committed equipment status changes by target status.",
		}, []string{"status"}),
		HistoryEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "history_entries_total",
			Help:      "Committed audit entries by kind.",
		}, []string{"kind"}),
		EquipmentDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "equipment_deleted_total",
			Help:      "Committed equipment deletions.",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.StatusTransitions, m.HistoryEntries, m.EquipmentDeleted)
	return m
}

// ObserveHistory и прочие Observe* допускают nil-получатель (метрики выключены)
func (m *Metrics) ObserveHistory(kind string) {
	if m == nil {
		return
	}
	m.HistoryEntries.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
	m.ObserveHistory(HistoryKindStatus)
}

func (m *Metrics) ObserveDeletion() {
	if m == nil {
		return
	}
	m.EquipmentDeleted.Inc()
}

// Middleware считает запросы по шаблону маршрута (c.Path()), а не по сырому URI
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			m.HTTPRequests.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(c.Response().Status),
			).Inc()
			return nil
		}
	}
}
